package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/pricing"
)

const testServer = "http://sparkreach.test"

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparkctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: https://api.example.com\nadmin_email: ops@example.com\n"), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Server)
	assert.Equal(t, "ops@example.com", cfg.AdminEmail)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultServer, cfg.Server)
}

func TestDefaultConfigPath(t *testing.T) {
	assert.Equal(t, "sparkctl.yaml", filepath.Base(defaultConfigPath()))
	assert.Equal(t, "sparkreach", filepath.Base(filepath.Dir(defaultConfigPath())))
}

func TestClient_Chargers(t *testing.T) {
	defer gock.Off()

	gock.New(testServer).
		Get("/api/chargers").
		MatchParam("q", "saket").
		Reply(200).
		JSON(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "3", "location": "Saket Mall Parking", "area": "Saket", "type": "CCS", "price": 200},
			},
		})

	c, err := newAPIClient(testServer)
	require.NoError(t, err)
	chargers, err := c.Chargers("saket", "")
	require.NoError(t, err)
	require.Len(t, chargers, 1)
	assert.Equal(t, "Saket Mall Parking", chargers[0].Location)
	assert.True(t, gock.IsDone())
}

func TestClient_AdminBookings(t *testing.T) {
	defer gock.Off()

	gock.New(testServer).
		Post("/api/admin/login").
		BodyString(`{"email":"admin@sparkreach.com","password":"admin123"}`).
		Reply(200).
		JSON(map[string]interface{}{"data": map[string]string{"token": "tok"}})
	gock.New(testServer).
		Get("/api/admin/bookings").
		MatchParam("status", "upcoming").
		MatchHeader("Authorization", "Bearer tok").
		Reply(200).
		JSON(map[string]interface{}{
			"data": []map[string]interface{}{{"id": "bk-1002", "status": "upcoming"}},
		})

	c, err := newAPIClient(testServer)
	require.NoError(t, err)
	require.NoError(t, c.AdminLogin("admin@sparkreach.com", "admin123"))
	bookings, err := c.Bookings("upcoming")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "bk-1002", bookings[0].ID)
	assert.True(t, gock.IsDone())
}

func TestClient_ErrorEnvelope(t *testing.T) {
	defer gock.Off()

	gock.New(testServer).
		Post("/api/admin/login").
		Reply(401).
		JSON(map[string]string{"error": "unauthorized: invalid email or password"})

	c, err := newAPIClient(testServer)
	require.NoError(t, err)
	err = c.AdminLogin("admin@sparkreach.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestNewAPIClientRejectsBadURL(t *testing.T) {
	_, err := newAPIClient("not a url")
	assert.Error(t, err)
}

func TestPrintQuote(t *testing.T) {
	b, err := pricing.Quote(180, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	printQuote(&buf, b)
	assert.Contains(t, buf.String(), "₹540")
	assert.Contains(t, buf.String(), "₹27")
	assert.Contains(t, buf.String(), "₹567")
}

func TestPrintChargers(t *testing.T) {
	var buf bytes.Buffer
	printChargers(&buf, []models.Charger{{
		ID:       "1",
		Location: "Connaught Place Hub",
		Type:     models.ChargerTypeCCS,
		Price:    180,
		Slots:    models.DefaultSlots(),
	}})
	assert.Contains(t, buf.String(), "Connaught Place Hub")
	assert.Contains(t, buf.String(), "8")
}
