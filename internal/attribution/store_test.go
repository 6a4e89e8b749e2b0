package attribution

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutAndTake(t *testing.T) {
	sut := New()
	sut.Put("ABC123", Metadata{FBP: "fbp.1", FBC: "fbc.1"})

	md, ok := sut.TakeAndClear("abc123")
	assert.True(t, ok)
	assert.Equal(t, "fbp.1", md.FBP)
	assert.Equal(t, "fbc.1", md.FBC)
	assert.Equal(t, 0, sut.Count())
}

func TestTakeAndClear_SecondTakeObservesAbsence(t *testing.T) {
	sut := New()
	sut.Put("abc123", Metadata{FBP: "fbp.1"})

	_, ok := sut.TakeAndClear("abc123")
	assert.True(t, ok)

	_, ok = sut.TakeAndClear("abc123")
	assert.False(t, ok)
}

func TestTakeAndClear_UnknownID(t *testing.T) {
	sut := New()

	md, ok := sut.TakeAndClear("never-seen")
	assert.False(t, ok)
	assert.True(t, md.IsEmpty())
}

func TestPut_OverwritesSilently(t *testing.T) {
	sut := New()
	sut.Put("abc", Metadata{FBP: "old"})
	sut.Put("ABC", Metadata{FBP: "new"})

	assert.Equal(t, 1, sut.Count())

	md, ok := sut.TakeAndClear("abc")
	assert.True(t, ok)
	assert.Equal(t, "new", md.FBP)
}

func TestPut_EmptyMetadataKeepsJoinKey(t *testing.T) {
	sut := New()
	sut.Put("abc", Metadata{})

	md, ok := sut.TakeAndClear("abc")
	assert.True(t, ok)
	assert.True(t, md.IsEmpty())
}

func TestTakeAndClear_ConcurrentSingleConsumer(t *testing.T) {
	sut := New()
	sut.Put("abc123", Metadata{FBP: "fbp.1"})

	const callers = 32

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0

	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := sut.TakeAndClear("ABC123"); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, taken)
}
