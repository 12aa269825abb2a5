package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeOverridesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overrides.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverrides(t *testing.T) {
	path := writeOverridesFile(t, `# company calendar
2025-12-31 workday office open
2025-08-04 holiday Корпоратив

2025-06-02 1
`)

	overrides, err := LoadOverrides(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 3, overrides.Len())

	flag, ok := overrides.Lookup(time.Date(2025, 12, 31, 15, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, OverrideWorkday, flag)

	flag, ok = overrides.Lookup(time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, OverrideHoliday, flag)

	flag, ok = overrides.Lookup(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, OverrideHoliday, flag)

	_, ok = overrides.Lookup(time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestLoadOverrides_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Missing type", "2025-12-31\n"},
		{"Bad date", "2025-13-01 workday\n"},
		{"Unknown type", "2025-12-31 shortened\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOverrides(writeOverridesFile(t, tt.content), zaptest.NewLogger(t))
			assert.Error(t, err)
		})
	}

	_, err := LoadOverrides(filepath.Join(t.TempDir(), "missing.txt"), zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewOverrides_Validation(t *testing.T) {
	_, err := NewOverrides(map[civil.Date]OverrideFlag{
		{Year: 2025, Month: time.December, Day: 31}: 2,
	})
	assert.Error(t, err)

	_, err = NewOverrides(map[civil.Date]OverrideFlag{
		{Year: 2025, Month: time.February, Day: 30}: OverrideHoliday,
	})
	assert.Error(t, err)
}

func TestOverrides_ImmutableCopy(t *testing.T) {
	src := map[civil.Date]OverrideFlag{
		{Year: 2025, Month: time.December, Day: 31}: OverrideWorkday,
	}
	overrides, err := NewOverrides(src)
	require.NoError(t, err)

	src[civil.Date{Year: 2025, Month: time.December, Day: 30}] = OverrideHoliday
	delete(src, civil.Date{Year: 2025, Month: time.December, Day: 31})

	assert.Equal(t, 1, overrides.Len())
	_, ok := overrides.Lookup(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
}

func TestOverrides_Merge(t *testing.T) {
	base, err := NewOverrides(map[civil.Date]OverrideFlag{
		{Year: 2025, Month: time.December, Day: 31}: OverrideHoliday,
		{Year: 2025, Month: time.December, Day: 30}: OverrideHoliday,
	})
	require.NoError(t, err)
	extra, err := NewOverrides(map[civil.Date]OverrideFlag{
		{Year: 2025, Month: time.December, Day: 31}: OverrideWorkday,
	})
	require.NoError(t, err)

	merged := base.Merge(extra)
	assert.Equal(t, 2, merged.Len())

	flag, _ := merged.Lookup(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, OverrideWorkday, flag)

	flag, _ = base.Lookup(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, OverrideHoliday, flag, "merge must not modify the receiver")
}
