package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewText(t *testing.T) {
	a := NewText("héllo")

	assert.Equal(t, "héllo", a.Value())
	assert.Equal(t, "héllo", a.String())
	assert.Equal(t, 5, a.Len())
}

func TestText_Nil(t *testing.T) {
	var a *Text

	assert.Empty(t, a.Value())
	assert.Equal(t, 0, a.Len())
}
