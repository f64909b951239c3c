// Package catalog 充电桩目录：内置示例数据、YAML 目录文件、列表筛选
package catalog

import (
	"time"

	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/pricing"
	"github.com/langchou/sparkreach/internal/state"
)

const unsplash = "https://images.unsplash.com/"

// slots 根据不可用时段生成时段列表
func slots(unavailable ...string) models.Slots {
	out := models.DefaultSlots()
	for i := range out {
		for _, u := range unavailable {
			if out[i].Time == u {
				out[i].Available = false
			}
		}
	}
	return out
}

// MockChargers 内置的德里充电桩目录
func MockChargers() []*models.Charger {
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return []*models.Charger{
		{
			ID:               "1",
			Location:         "Connaught Place Hub",
			Area:             "Connaught Place",
			Address:          "Block A, Inner Circle, Connaught Place, New Delhi 110001",
			Type:             models.ChargerTypeCCS,
			Power:            "50 kW",
			Price:            180,
			Rating:           4.8,
			Reviews:          124,
			Slots:            slots("08:00-10:00", "18:00-20:00"),
			Latitude:         28.6315,
			Longitude:        77.2167,
			Image:            unsplash + "photo-1593941707882-a5bba14938c7?w=800",
			AdditionalImages: []string{unsplash + "photo-1617704548623-340376564e68?w=400"},
			Amenities:        []string{"Covered Parking", "Security", "CCTV", "Restroom"},
			HostName:         "Rajesh Kumar",
			CreatedAt:        created,
		},
		{
			ID:        "2",
			Location:  "Dwarka Sector 21 Residency",
			Area:      "Dwarka",
			Address:   "Plot 14, Sector 21, Dwarka, New Delhi 110077",
			Type:      models.ChargerTypeType2,
			Power:     "7.4 kW",
			Price:     120,
			Rating:    4.5,
			Reviews:   58,
			Slots:     slots("06:00-08:00"),
			Latitude:  28.5521,
			Longitude: 77.0588,
			Image:     unsplash + "photo-1647500666356-bd5a6e7e3b8a?w=800",
			Amenities: []string{"Well-lit", "Security"},
			HostName:  "Priya Sharma",
			CreatedAt: created.Add(24 * time.Hour),
		},
		{
			ID:        "3",
			Location:  "Saket Mall Parking",
			Area:      "Saket",
			Address:   "Basement 2, Select Citywalk, Saket, New Delhi 110017",
			Type:      models.ChargerTypeCCS,
			Power:     "60 kW",
			Price:     200,
			Rating:    4.7,
			Reviews:   210,
			Slots:     slots("12:00-14:00", "14:00-16:00"),
			Latitude:  28.5286,
			Longitude: 77.2190,
			Image:     unsplash + "photo-1558427400-bc691467a8a9?w=800",
			Amenities: []string{"Covered Parking", "Restroom", "WiFi", "Waiting Area", "Refreshments"},
			HostName:  "Citywalk Facilities",
			CreatedAt: created.Add(48 * time.Hour),
		},
		{
			ID:        "4",
			Location:  "Lajpat Nagar Home Charger",
			Area:      "Lajpat Nagar",
			Address:   "C-42, Lajpat Nagar II, New Delhi 110024",
			Type:      models.ChargerTypeType2,
			Power:     "3.3 kW",
			Price:     90,
			Rating:    4.2,
			Reviews:   17,
			Slots:     slots("20:00-22:00"),
			Latitude:  28.5677,
			Longitude: 77.2433,
			Image:     unsplash + "photo-1620891549027-942fdc95d3f5?w=800",
			Amenities: []string{"Security"},
			HostName:  "Amit Verma",
			CreatedAt: created.Add(72 * time.Hour),
		},
		{
			ID:        "5",
			Location:  "Nehru Place Tech Park",
			Area:      "Nehru Place",
			Address:   "Tower B Parking, Nehru Place, New Delhi 110019",
			Type:      models.ChargerTypeCHAdeMO,
			Power:     "50 kW",
			Price:     170,
			Rating:    4.4,
			Reviews:   66,
			Slots:     slots(),
			Latitude:  28.5491,
			Longitude: 77.2519,
			Image:     unsplash + "photo-1596731498067-99aeb581d3d7?w=800",
			Amenities: []string{"Covered Parking", "CCTV", "WiFi"},
			HostName:  "Nehru Place Estates",
			CreatedAt: created.Add(96 * time.Hour),
		},
		{
			ID:        "6",
			Location:  "Rohini Community Centre",
			Area:      "Rohini",
			Address:   "Sector 8 Community Centre, Rohini, Delhi 110085",
			Type:      models.ChargerTypeType2,
			Power:     "22 kW",
			Price:     140,
			Rating:    4.3,
			Reviews:   41,
			Slots:     slots("10:00-12:00"),
			Latitude:  28.7160,
			Longitude: 77.1130,
			Image:     unsplash + "photo-1611095973763-414019e72400?w=800",
			Amenities: []string{"Well-lit", "Restroom"},
			HostName:  "Sunita Gupta",
			CreatedAt: created.Add(120 * time.Hour),
		},
	}
}

// AdminData 管理后台示例数据
type AdminData struct {
	PendingHosts []*models.HostApplication
	Bookings     []*models.Booking
	Users        []*models.User
}

// MockAdminData 管理后台示例数据：待审核房东、历史预约、用户
func MockAdminData(now time.Time) AdminData {
	day := func(offset int) string { return now.AddDate(0, 0, offset).Format("2006-01-02") }

	return AdminData{
		PendingHosts: []*models.HostApplication{
			{
				ID:          "host-101",
				Location:    "Vasant Kunj Villa Charger",
				Area:        "Vasant Kunj",
				Address:     "B-7, Vasant Kunj, New Delhi 110070",
				Type:        models.ChargerTypeType2,
				Power:       "7.4 kW",
				Price:       110,
				Description: "Private driveway charger, gated society.",
				Amenities:   []string{"Security", "CCTV"},
				Latitude:    28.5200,
				Longitude:   77.1580,
				Images:      []string{unsplash + "photo-1593941707882-a5bba14938c7?w=400"},
				Slots:       slots("06:00-08:00", "20:00-22:00"),
				HostName:    "Vikram Singh",
				HostEmail:   "vikram@example.com",
				HostPhone:   "9810012345",
				Status:      models.HostStatusPending,
				SubmittedAt: now.AddDate(0, 0, -2),
			},
			{
				ID:          "host-102",
				Location:    "Karol Bagh Market Point",
				Area:        "Karol Bagh",
				Address:     "Ajmal Khan Road, Karol Bagh, New Delhi 110005",
				Type:        models.ChargerTypeCCS,
				Power:       "30 kW",
				Price:       160,
				Amenities:   []string{"Covered Parking", "Refreshments"},
				Latitude:    28.6519,
				Longitude:   77.1909,
				Images:      []string{unsplash + "photo-1617704548623-340376564e68?w=400"},
				Slots:       slots(),
				HostName:    "Neha Malhotra",
				HostEmail:   "neha@example.com",
				HostPhone:   "9899098990",
				Status:      models.HostStatusPending,
				SubmittedAt: now.AddDate(0, 0, -1),
			},
		},
		Bookings: []*models.Booking{
			mockBooking("bk-1001", "1", "Connaught Place Hub", "Connaught Place", "rahul@example.com", "Rahul Mehta", "9876543210", day(-10), "10:00-12:00", 2, 180, models.BookingStatusCompleted, now.AddDate(0, 0, -11)),
			mockBooking("bk-1002", "3", "Saket Mall Parking", "Saket", "anjali@example.com", "Anjali Rao", "9811122233", day(2), "16:00-18:00", 3, 200, models.BookingStatusUpcoming, now.AddDate(0, 0, -1)),
			mockBooking("bk-1003", "2", "Dwarka Sector 21 Residency", "Dwarka", "rahul@example.com", "Rahul Mehta", "9876543210", day(-3), "08:00-10:00", 1, 120, models.BookingStatusCancelled, now.AddDate(0, 0, -4)),
		},
		Users: []*models.User{
			mockUser("user-1", "Rahul Mehta", "rahul@example.com", "9876543210", "Tata", "Nexon EV", now.AddDate(0, -2, 0), models.ChargerTypeType2, models.ChargerTypeCCS),
			mockUser("user-2", "Anjali Rao", "anjali@example.com", "9811122233", "MG", "ZS EV", now.AddDate(0, 0, -5), models.ChargerTypeType2, models.ChargerTypeCCS),
			mockUser("user-3", "Karan Kapoor", "karan@example.com", "9988776655", "Mahindra", "eVerito", now.AddDate(0, -6, 0), models.ChargerTypeType2),
		},
	}
}

func mockBooking(id, chargerID, location, area, email, name, phone, date, slot string, duration, hourly int, status string, created time.Time) *models.Booking {
	price := pricing.Calculate(hourly, duration)
	b := &models.Booking{
		ID:              id,
		ChargerID:       chargerID,
		ChargerLocation: location,
		ChargerArea:     area,
		UserEmail:       email,
		UserName:        name,
		Phone:           phone,
		Date:            date,
		Slot:            slot,
		Duration:        duration,
		HourlyPrice:     price.HourlyPrice,
		TotalPrice:      price.Total,
		PlatformFee:     price.PlatformFee,
		FinalTotal:      price.FinalTotal,
		Status:          status,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	b.Payment = models.Payment{Mode: models.PaymentModeGateway, State: state.StateSucceeded, Amount: b.FinalTotal * 100, Currency: "INR", UpdatedAt: created}
	if status == models.BookingStatusCancelled {
		b.Payment.State = state.StateCancelled
	}
	return b
}

func mockUser(id, name, email, phone, evMake, evModel string, joined time.Time, compatible ...string) *models.User {
	return &models.User{
		ID:    id,
		Name:  name,
		Email: email,
		Phone: phone,
		City:  "Delhi",
		EVDetails: &models.EVDetails{
			Make:               evMake,
			Model:              evModel,
			CompatibleChargers: compatible,
		},
		JoinedAt: joined,
	}
}
