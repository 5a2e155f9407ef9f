package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedin-ingest/internal/models"
)

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name      string
		date      models.PartialDate
		precision string
		want      string
	}{
		{"year only at day precision", models.PartialDate{Year: 2021}, PrecisionDay, "2021"},
		{"year only at month precision", models.PartialDate{Year: 2021}, PrecisionMonth, "2021"},
		{"month at day precision", models.PartialDate{Year: 2021, Month: 4}, PrecisionDay, "2021-04"},
		{"full date", models.PartialDate{Year: 2021, Month: 4, Day: 7}, PrecisionDay, "2021-04-07"},
		{"full date at month precision", models.PartialDate{Year: 2021, Month: 11, Day: 7}, PrecisionMonth, "2021-11"},
		{"full date at year precision", models.PartialDate{Year: 2021, Month: 11, Day: 7}, PrecisionYear, "2021"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatDate(tt.date, tt.precision)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDate_YearOnlyIgnoresPrecision(t *testing.T) {
	for _, year := range []int{1999, 2000, 2024} {
		d := models.PartialDate{Year: year}
		day, err := FormatDate(d, PrecisionDay)
		require.NoError(t, err)
		y, err := FormatDate(d, PrecisionYear)
		require.NoError(t, err)
		assert.Equal(t, y, day)
	}
}

func TestFormatDate_InvalidPrecision(t *testing.T) {
	_, err := FormatDate(models.PartialDate{Year: 2020}, "week")
	assert.ErrorIs(t, err, models.ErrInvalidPrecision)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		r    models.DateRange
		want string
	}{
		{
			name: "open ended",
			r:    models.DateRange{Start: &models.PartialDate{Year: 2020, Month: 3}},
			want: "DURATION: 2020-03 to Present\n",
		},
		{
			name: "closed",
			r: models.DateRange{
				Start: &models.PartialDate{Year: 2018, Month: 1, Day: 15},
				End:   &models.PartialDate{Year: 2019},
			},
			want: "DURATION: 2018-01 to 2019\n",
		},
		{
			name: "unknown start",
			r:    models.DateRange{End: &models.PartialDate{Year: 2019, Month: 9}},
			want: "DURATION: Unknown to 2019-09\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.r))
		})
	}
}

func TestFormatDurationWith(t *testing.T) {
	r := models.DateRange{Start: &models.PartialDate{Year: 2020}}
	assert.Equal(t, "(2020 to Present)", FormatDurationWith(r, "(", ")"))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "42s", FormatElapsed(42*time.Second))
	assert.Equal(t, "2m5s", FormatElapsed(125*time.Second))
	assert.Equal(t, "1h30m", FormatElapsed(90*time.Minute))
}
