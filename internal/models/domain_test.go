package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainOrder(t *testing.T) {
	assert.Equal(t, 0, DomainCampus.Order())
	assert.Equal(t, 4, DomainValues.Order())
	assert.Equal(t, -1, Domain("weather").Order())
	assert.False(t, Domain("weather").Valid())

	d, err := ParseDomain("news")
	require.NoError(t, err)
	assert.Equal(t, DomainNews, d)

	_, err = ParseDomain("weather")
	assert.Error(t, err)
}

func TestDecisions_CalledIsInFoldOrder(t *testing.T) {
	d := Decisions{
		DomainPedagogy: {Domain: DomainPedagogy, Call: true},
		DomainCampus:   {Domain: DomainCampus, Call: true},
		DomainNews:     {Domain: DomainNews, Call: false},
	}
	assert.Equal(t, []Domain{DomainCampus, DomainPedagogy}, d.Called())

	d.Force(DomainDegrees, "level answer")
	assert.Equal(t, []Domain{DomainCampus, DomainDegrees, DomainPedagogy}, d.Called())
	assert.Equal(t, []string{"level answer"}, d[DomainDegrees].Reasons)
}
