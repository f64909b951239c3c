package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/sparkreach/internal/api/razorpay"
	"github.com/langchou/sparkreach/internal/auth"
	"github.com/langchou/sparkreach/internal/catalog"
	"github.com/langchou/sparkreach/internal/repository/memstore"
	"github.com/langchou/sparkreach/internal/session"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) BroadcastMessage(msgType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, msgType)
}

func (r *recorder) count(msgType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == msgType {
			n++
		}
	}
	return n
}

type fakeGateway struct {
	mu       sync.Mutex
	err      error
	hold     chan struct{} // 非空时 CreateOrder 阻塞到 close
	requests []razorpay.OrderRequest
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	hold, err := g.hold, g.err
	g.mu.Unlock()

	if hold != nil {
		<-hold
	}
	if err != nil {
		return nil, err
	}
	return &razorpay.Order{ID: "order_" + req.Receipt[:8], Amount: req.Amount, Currency: req.Currency, Status: "created"}, nil
}

func (g *fakeGateway) requestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *fakeGateway) VerifySignature(_, _, signature string) bool {
	return signature == "good"
}

// fastHasher 测试中跳过 bcrypt 的开销
type fastHasher struct{}

func (fastHasher) Hash(password string) (string, error) { return "h:" + password, nil }

func (fastHasher) Compare(hash, password string) error {
	if hash != "h:"+password {
		return errors.New("mismatch")
	}
	return nil
}

var _ auth.Hasher = fastHasher{}

type testEnv struct {
	stores   Stores
	events   *recorder
	gateway  *fakeGateway
	catalog  *CatalogService
	bookings *BookingService
	hosts    *HostService
	admin    *AdminService
	users    *UserService
	sessions *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	data := catalog.MockAdminData(time.Now())
	stores := Stores{
		Chargers: memstore.NewChargerRepository(catalog.MockChargers()),
		Hosts:    memstore.NewHostRepository(data.PendingHosts),
		Bookings: memstore.NewBookingRepository(data.Bookings),
		Users:    memstore.NewUserRepository(data.Users),
	}

	env := &testEnv{
		stores:  stores,
		events:  &recorder{},
		gateway: &fakeGateway{},
	}
	env.catalog = NewCatalogService(stores, time.UTC, logger)
	env.bookings = NewBookingService(env.catalog, stores, env.gateway, env.events, BookingOptions{
		DemoDelay: 20 * time.Millisecond,
		Location:  time.UTC,
	}, logger)
	env.hosts = NewHostService(stores, env.events, t.TempDir(), logger)
	env.admin = NewAdminService(stores, AdminCredentials{
		Email:        "admin@sparkreach.com",
		Name:         "SparkReach Admin",
		PasswordHash: "h:admin123",
	}, fastHasher{}, env.events, logger)
	env.users = NewUserService(stores, fastHasher{}, logger)
	env.sessions = NewSessionService(session.NewMemoryStore(time.Hour), auth.NewTokenService("test-secret", time.Hour), logger)

	t.Cleanup(env.bookings.Stop)
	return env
}

func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format(dateLayout)
}
