package nativesearch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_ReleasesInReverseOrderOnce(t *testing.T) {
	var order []int
	var reported []error
	sc := &scope{onError: func(err error) { reported = append(reported, err) }}
	for i := 1; i <= 3; i++ {
		i := i
		sc.add(func() error {
			order = append(order, i)
			if i == 2 {
				return errors.New("boom")
			}
			return nil
		})
	}

	sc.close()
	sc.close()

	assert.Equal(t, []int{3, 2, 1}, order)
	assert.Len(t, reported, 1)
}

func TestScope_AddAfterCloseReleasesImmediately(t *testing.T) {
	sc := &scope{}
	sc.close()

	released := false
	sc.add(func() error { released = true; return nil })
	assert.True(t, released)
}
