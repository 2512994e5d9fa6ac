package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itrascastro/itrascastro.github.io-sub001/calendar"
)

func TestSelectStrategy(t *testing.T) {
	study := []calendar.Type{calendar.TypeFP, calendar.TypeBTX}
	for _, src := range study {
		for _, dst := range study {
			s, err := SelectStrategy(src, dst)
			require.NoError(t, err, "%s -> %s", src, dst)
			assert.Equal(t, "study", s.Name())
		}
	}

	for _, pair := range [][2]calendar.Type{
		{calendar.TypeOther, calendar.TypeFP},
		{calendar.TypeBTX, calendar.TypeOther},
		{calendar.TypeOther, calendar.TypeOther},
	} {
		s, err := SelectStrategy(pair[0], pair[1])
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrStrategyUnresolved, "%s -> %s", pair[0], pair[1])
	}
}

func TestStudyStrategy_DelegatesToEngine(t *testing.T) {
	events := []calendar.Event{userEvent("ev-1", "2025-09-05")}

	viaStrategy, err := StudyStrategy{}.Replicate(tenDaySource, events, twentyDayTarget)
	require.NoError(t, err)
	direct, err := Replicate(tenDaySource, events, twentyDayTarget)
	require.NoError(t, err)

	assert.Equal(t, direct, viaStrategy)
}
