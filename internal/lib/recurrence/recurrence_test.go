package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrInt(n int) *int { return &n }

func TestAdvance(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		freq     Frequency
		expected time.Time
	}{
		{
			name:     "daily",
			date:     date(2024, time.March, 15),
			freq:     Daily,
			expected: date(2024, time.March, 16),
		},
		{
			name:     "weekly",
			date:     date(2024, time.March, 15),
			freq:     Weekly,
			expected: date(2024, time.March, 22),
		},
		{
			name:     "biweekly",
			date:     date(2024, time.March, 15),
			freq:     Biweekly,
			expected: date(2024, time.March, 29),
		},
		{
			name:     "monthly",
			date:     date(2024, time.March, 15),
			freq:     Monthly,
			expected: date(2024, time.April, 15),
		},
		{
			name:     "monthly clamps january 31 to leap february 29",
			date:     date(2024, time.January, 31),
			freq:     Monthly,
			expected: date(2024, time.February, 29),
		},
		{
			name:     "monthly clamps january 31 to february 28",
			date:     date(2023, time.January, 31),
			freq:     Monthly,
			expected: date(2023, time.February, 28),
		},
		{
			name:     "monthly clamps may 31 to june 30",
			date:     date(2024, time.May, 31),
			freq:     Monthly,
			expected: date(2024, time.June, 30),
		},
		{
			name:     "bimonthly",
			date:     date(2024, time.January, 31),
			freq:     Bimonthly,
			expected: date(2024, time.March, 31),
		},
		{
			name:     "quarterly",
			date:     date(2024, time.November, 30),
			freq:     Quarterly,
			expected: date(2025, time.February, 28),
		},
		{
			name:     "semiannual",
			date:     date(2024, time.August, 31),
			freq:     Semiannual,
			expected: date(2025, time.February, 28),
		},
		{
			name:     "annual",
			date:     date(2024, time.February, 29),
			freq:     Annual,
			expected: date(2025, time.February, 28),
		},
		{
			name:     "annual crosses year boundary",
			date:     date(2024, time.December, 31),
			freq:     Annual,
			expected: date(2025, time.December, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Advance(tt.date, tt.freq)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAdvance_UnknownFrequency(t *testing.T) {
	_, err := Advance(date(2024, time.March, 15), Frequency("fortnightly"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestFrequency_Valid(t *testing.T) {
	for _, f := range []Frequency{Daily, Weekly, Biweekly, Monthly, Bimonthly, Quarterly, Semiannual, Annual} {
		assert.True(t, f.Valid(), string(f))
	}
	assert.False(t, Frequency("").Valid())
	assert.False(t, Frequency("yearly").Valid())
}

func TestEvaluate(t *testing.T) {
	today := date(2024, time.June, 10)

	tests := []struct {
		name     string
		rule     Rule
		expected Decision
	}{
		{
			name: "inactive rule is skipped",
			rule: Rule{
				Active:    false,
				Frequency: Monthly,
				StartDate: date(2024, time.January, 1),
			},
			expected: Decision{},
		},
		{
			name: "end date passed deactivates",
			rule: Rule{
				Active:    true,
				Frequency: Monthly,
				StartDate: date(2024, time.January, 1),
				EndDate:   ptrTime(date(2024, time.June, 9)),
			},
			expected: Decision{Deactivate: true},
		},
		{
			name: "end date today still fires",
			rule: Rule{
				Active:    true,
				Frequency: Monthly,
				StartDate: date(2024, time.June, 10),
				EndDate:   ptrTime(date(2024, time.June, 10)),
			},
			expected: Decision{
				Fire:     true,
				DueDate:  date(2024, time.June, 10),
				NextDate: date(2024, time.July, 10),
			},
		},
		{
			name: "generation limit reached deactivates",
			rule: Rule{
				Active:          true,
				Frequency:       Weekly,
				StartDate:       date(2024, time.January, 1),
				TotalGenerated:  12,
				GenerationLimit: ptrInt(12),
			},
			expected: Decision{Deactivate: true},
		},
		{
			name: "end date check wins over limit check",
			rule: Rule{
				Active:          true,
				Frequency:       Weekly,
				StartDate:       date(2024, time.January, 1),
				EndDate:         ptrTime(date(2024, time.May, 1)),
				TotalGenerated:  12,
				GenerationLimit: ptrInt(12),
			},
			expected: Decision{Deactivate: true},
		},
		{
			name: "not yet due",
			rule: Rule{
				Active:    true,
				Frequency: Monthly,
				StartDate: date(2024, time.June, 11),
			},
			expected: Decision{},
		},
		{
			name: "first generation uses start date",
			rule: Rule{
				Active:    true,
				Frequency: Monthly,
				StartDate: date(2024, time.June, 1),
			},
			expected: Decision{
				Fire:     true,
				DueDate:  date(2024, time.June, 1),
				NextDate: date(2024, time.July, 1),
			},
		},
		{
			name: "later generations use next date",
			rule: Rule{
				Active:         true,
				Frequency:      Monthly,
				StartDate:      date(2024, time.January, 5),
				NextDate:       ptrTime(date(2024, time.June, 5)),
				TotalGenerated: 5,
			},
			expected: Decision{
				Fire:     true,
				DueDate:  date(2024, time.June, 5),
				NextDate: date(2024, time.July, 5),
			},
		},
		{
			name: "due exactly today fires",
			rule: Rule{
				Active:    true,
				Frequency: Daily,
				NextDate:  ptrTime(date(2024, time.June, 10)),
				StartDate: date(2024, time.January, 1),
			},
			expected: Decision{
				Fire:     true,
				DueDate:  date(2024, time.June, 10),
				NextDate: date(2024, time.June, 11),
			},
		},
		{
			name: "limit not yet reached fires",
			rule: Rule{
				Active:          true,
				Frequency:       Weekly,
				StartDate:       date(2024, time.January, 1),
				NextDate:        ptrTime(date(2024, time.June, 3)),
				TotalGenerated:  11,
				GenerationLimit: ptrInt(12),
			},
			expected: Decision{
				Fire:     true,
				DueDate:  date(2024, time.June, 3),
				NextDate: date(2024, time.June, 10),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.rule, today)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEvaluate_UnknownFrequency(t *testing.T) {
	rule := Rule{
		Active:    true,
		Frequency: Frequency("lunar"),
		StartDate: date(2024, time.June, 1),
	}
	_, err := Evaluate(rule, date(2024, time.June, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestEvaluate_Idempotent(t *testing.T) {
	rule := Rule{
		Active:    true,
		Frequency: Monthly,
		StartDate: date(2024, time.January, 31),
		NextDate:  ptrTime(date(2024, time.May, 31)),
	}
	today := date(2024, time.June, 2)

	first, err := Evaluate(rule, today)
	require.NoError(t, err)
	second, err := Evaluate(rule, today)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluate_IgnoresTimeOfDay(t *testing.T) {
	rule := Rule{
		Active:    true,
		Frequency: Daily,
		StartDate: date(2024, time.June, 10),
	}
	today := time.Date(2024, time.June, 10, 23, 59, 59, 0, time.UTC)

	got, err := Evaluate(rule, today)
	require.NoError(t, err)
	assert.True(t, got.Fire)
	assert.Equal(t, date(2024, time.June, 10), got.DueDate)
}
