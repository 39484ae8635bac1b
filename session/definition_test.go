package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRegistrationOrder(t *testing.T) {
	c := NewCatalog()
	c.Register("python", "python", Definition{Command: []string{"python3"}})
	c.Register("python", "ipython", Definition{Command: []string{"ipython"}})

	defs, err := c.Definitions("python")
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "python", defs[0].Label)
	assert.Equal(t, "ipython", defs[1].Label)
}

func TestCatalogOverwriteKeepsPosition(t *testing.T) {
	c := NewCatalog()
	c.Register("python", "python", Definition{Command: []string{"python3"}})
	c.Register("python", "ipython", Definition{Command: []string{"ipython"}})
	c.Register("python", "python", Definition{Command: []string{"python3", "-q"}})

	defs, err := c.Definitions("python")
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "python", defs[0].Label)
	assert.Equal(t, []string{"python3", "-q"}, defs[0].Definition.Command)
}

func TestCatalogUnknownContext(t *testing.T) {
	c := NewCatalog()
	_, err := c.Definitions("haskell")
	assert.ErrorIs(t, err, ErrUnknownContext)

	_, ok := c.Lookup("haskell", "ghci")
	assert.False(t, ok)
}

func TestCatalogMerge(t *testing.T) {
	dst := NewCatalog()
	dst.Register("python", "python", Definition{Command: []string{"python3"}})

	src := NewCatalog()
	src.Register("python", "python", Definition{Command: []string{"python3", "-q"}})
	src.Register("r", "R", Definition{Command: []string{"R"}})

	dst.Merge(src)

	def, ok := dst.Lookup("python", "python")
	require.True(t, ok)
	assert.Equal(t, []string{"python3", "-q"}, def.Command)

	_, ok = dst.Lookup("r", "R")
	assert.True(t, ok)
	assert.Equal(t, []Context{"python", "r"}, dst.Contexts())

	// Merging nil or itself is a no-op.
	dst.Merge(nil)
	dst.Merge(dst)
	assert.Equal(t, []Context{"python", "r"}, dst.Contexts())
}

func TestCatalogConcurrentRegisterAndRead(t *testing.T) {
	c := NewCatalog()
	c.Register("python", "python", Definition{Command: []string{"python3"}})

	extra := NewCatalog()
	extra.Register("r", "R", Definition{Command: []string{"R"}})

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.Register("python", fmt.Sprintf("variant-%d", i), Definition{Command: []string{"python3"}})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.Merge(extra)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := c.Definitions("python"); err != nil {
				t.Error(err)
				return
			}
			c.Contexts()
			c.Lookup("python", "python")
		}
	}()
	wg.Wait()

	defs, err := c.Definitions("python")
	require.NoError(t, err)
	assert.Len(t, defs, 201)
}
