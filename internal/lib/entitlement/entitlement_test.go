package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func activeLicense() *License {
	return &License{
		Status:          RecordActive,
		PlanType:        "pro",
		StartDate:       now.AddDate(0, -1, 0),
		ExpiryDate:      now.AddDate(0, 6, 0),
		MaxUsers:        5,
		MaxTransactions: 1000,
		MaxProducts:     200,
		Features: map[Feature]bool{
			FeatureReports: true,
			FeatureExport:  true,
		},
	}
}

func TestDerive_NilLicense(t *testing.T) {
	info := Derive(nil, now)

	assert.Equal(t, StatusExpired, info.Status)
	assert.Equal(t, 0, info.DaysRemaining)
	assert.Equal(t, 0, info.MaxUsers)
	assert.Equal(t, 0, info.MaxTransactions)
	assert.Equal(t, 0, info.MaxProducts)
	assert.False(t, info.HasFeature(FeatureReports))
	assert.False(t, info.WithinLimit(LimitTransactions, 0))
}

func TestDerive_Status(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*License)
		expected Status
	}{
		{
			name:     "active license",
			mutate:   func(*License) {},
			expected: StatusActive,
		},
		{
			name: "trial record status",
			mutate: func(l *License) {
				l.Status = RecordTrial
			},
			expected: StatusTrial,
		},
		{
			name: "trial plan type",
			mutate: func(l *License) {
				l.PlanType = RecordTrial
			},
			expected: StatusTrial,
		},
		{
			name: "blocked overrides everything",
			mutate: func(l *License) {
				l.Blocked = true
			},
			expected: StatusExpired,
		},
		{
			name: "cancelled record",
			mutate: func(l *License) {
				l.Status = RecordCancelled
			},
			expected: StatusExpired,
		},
		{
			name: "explicitly expired record",
			mutate: func(l *License) {
				l.Status = RecordExpired
			},
			expected: StatusExpired,
		},
		{
			name: "expired by clock",
			mutate: func(l *License) {
				l.ExpiryDate = now.Add(-time.Hour)
			},
			expected: StatusExpired,
		},
		{
			name: "expiring within seven days",
			mutate: func(l *License) {
				l.ExpiryDate = now.AddDate(0, 0, 5)
			},
			expected: StatusExpiringSoon,
		},
		{
			name: "expiring soon wins over trial",
			mutate: func(l *License) {
				l.Status = RecordTrial
				l.ExpiryDate = now.AddDate(0, 0, 3)
			},
			expected: StatusExpiringSoon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lic := activeLicense()
			tt.mutate(lic)
			info := Derive(lic, now)
			assert.Equal(t, tt.expected, info.Status)
		})
	}
}

func TestDerive_DaysRemaining(t *testing.T) {
	tests := []struct {
		name     string
		expiry   time.Time
		expected int
	}{
		{
			name:     "partial day rounds up",
			expiry:   now.Add(time.Hour),
			expected: 1,
		},
		{
			name:     "exactly three days",
			expiry:   now.AddDate(0, 0, 3),
			expected: 3,
		},
		{
			name:     "three days and an hour rounds up to four",
			expiry:   now.AddDate(0, 0, 3).Add(time.Hour),
			expected: 4,
		},
		{
			name:     "already expired floors at zero",
			expiry:   now.Add(-48 * time.Hour),
			expected: 0,
		},
		{
			name:     "expiry equals now",
			expiry:   now,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lic := activeLicense()
			lic.ExpiryDate = tt.expiry
			info := Derive(lic, now)
			assert.Equal(t, tt.expected, info.DaysRemaining)
		})
	}
}

func TestInfo_HasFeature(t *testing.T) {
	lic := activeLicense()
	info := Derive(lic, now)

	assert.True(t, info.HasFeature(FeatureReports))
	assert.True(t, info.HasFeature(FeatureExport))
	assert.False(t, info.HasFeature(FeatureMultiUser))
	assert.False(t, info.HasFeature(FeatureKommoSync))
}

func TestInfo_HasFeature_ExpiredLicense(t *testing.T) {
	lic := activeLicense()
	lic.ExpiryDate = now.Add(-time.Hour)
	info := Derive(lic, now)

	// Флаг в записи стоит, но истекшая лицензия не дает функций.
	assert.False(t, info.HasFeature(FeatureReports))
}

func TestInfo_WithinLimit(t *testing.T) {
	lic := activeLicense()
	info := Derive(lic, now)

	assert.True(t, info.WithinLimit(LimitTransactions, 0))
	assert.True(t, info.WithinLimit(LimitTransactions, 999))
	assert.False(t, info.WithinLimit(LimitTransactions, 1000))
	assert.False(t, info.WithinLimit(LimitTransactions, 1001))

	assert.True(t, info.WithinLimit(LimitUsers, 4))
	assert.False(t, info.WithinLimit(LimitUsers, 5))
}

func TestInfo_WithinLimit_Unlimited(t *testing.T) {
	lic := activeLicense()
	lic.MaxTransactions = Unlimited
	info := Derive(lic, now)

	assert.True(t, info.WithinLimit(LimitTransactions, 0))
	assert.True(t, info.WithinLimit(LimitTransactions, 1_000_000))
}

func TestInfo_WithinLimit_UnknownKind(t *testing.T) {
	info := Derive(activeLicense(), now)
	assert.False(t, info.WithinLimit(LimitKind("invoices"), 0))
}
