package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/pkg/ws"
)

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, err := env.admin.Login(ctx, "Admin@SparkReach.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin@sparkreach.com", admin.Email)

	_, err = env.admin.Login(ctx, "admin@sparkreach.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.admin.Login(ctx, "someone@sparkreach.com", "admin123")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestApproveHost_PublishesCharger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	price := 125
	c, err := env.admin.ApproveHost(ctx, "host-101", ApproveHostRequest{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 125, c.Price)
	assert.Equal(t, "Vasant Kunj", c.Area)

	live, err := env.stores.Chargers.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vasant Kunj Villa Charger", live.Location)

	h, err := env.stores.Hosts.GetByID(ctx, "host-101")
	require.NoError(t, err)
	assert.Equal(t, models.HostStatusApproved, h.Status)
	assert.Equal(t, c.ID, h.ChargerID)
	assert.NotNil(t, h.ReviewedAt)
	assert.Equal(t, 1, env.events.count(ws.MsgTypeHostReviewed))

	_, err = env.admin.ApproveHost(ctx, "host-101", ApproveHostRequest{})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, CodeAlreadyReviewed, ConflictCode(err))

	_, err = env.admin.ApproveHost(ctx, "missing", ApproveHostRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewHost_ConcurrentDecisionsApplyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before, err := env.stores.Chargers.Count(ctx)
	require.NoError(t, err)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = env.admin.ApproveHost(ctx, "host-101", ApproveHostRequest{})
				return
			}
			_, errs[i] = env.admin.RejectHost(ctx, "host-101", "Duplicate listing")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, CodeAlreadyReviewed, ConflictCode(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, env.events.count(ws.MsgTypeHostReviewed))

	h, err := env.stores.Hosts.GetByID(ctx, "host-101")
	require.NoError(t, err)
	after, err := env.stores.Chargers.Count(ctx)
	require.NoError(t, err)
	if h.Status == models.HostStatusApproved {
		assert.Equal(t, before+1, after)
	} else {
		assert.Equal(t, models.HostStatusRejected, h.Status)
		assert.Equal(t, before, after)
	}
}

func TestApproveHost_InvalidOverride(t *testing.T) {
	env := newTestEnv(t)

	price := 0
	_, err := env.admin.ApproveHost(context.Background(), "host-102", ApproveHostRequest{Price: &price})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRejectHost_RequiresReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.admin.RejectHost(ctx, "host-102", "   ")
	require.ErrorIs(t, err, ErrValidation)

	h, err := env.admin.RejectHost(ctx, "host-102", "Photos do not show the charger")
	require.NoError(t, err)
	assert.Equal(t, models.HostStatusRejected, h.Status)
	assert.Equal(t, "Photos do not show the charger", h.RejectionReason)

	pending, err := env.admin.PendingHosts(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "host-101", pending[0].ID)
}

func TestAdminBookings_StatusFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	all, err := env.admin.Bookings(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := env.admin.Bookings(ctx, "")
	require.NoError(t, err)
	assert.Len(t, empty, 3)

	upcoming, err := env.admin.Bookings(ctx, "Upcoming")
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "bk-1002", upcoming[0].ID)

	_, err = env.admin.Bookings(ctx, "refunded")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminUsers_SearchAndTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	all, err := env.admin.Users(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byName, err := env.admin.Users(ctx, "RAHUL")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	// bk-1001 已完成计入，bk-1003 已取消不计入
	assert.Equal(t, 1, byName[0].TotalBookings)
	assert.Equal(t, 378, byName[0].TotalSpent)

	byPhone, err := env.admin.Users(ctx, "98111")
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, "anjali@example.com", byPhone[0].Email)

	byEmail, err := env.admin.Users(ctx, "KARAN@")
	require.NoError(t, err)
	assert.Len(t, byEmail, 1)
}

func TestAdminStatistics(t *testing.T) {
	env := newTestEnv(t)

	stats, err := env.admin.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 6, stats.ActiveChargers)
	assert.Equal(t, 2, stats.PendingApprovals)
	assert.Equal(t, 3, stats.TotalBookings)
	// 180*2 + 5% = 378, 200*3 + 5% = 630
	assert.Equal(t, 378+630, stats.TotalRevenue)
}
