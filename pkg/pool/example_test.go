package pool_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/jsonparquet/pkg/pool"
)

// Example shows a custom pool with a reset hook.
func Example() {
	p := pool.New(
		func() []string { return make([]string, 0, 8) },
		nil,
	)

	names := p.Get()
	names = append(names, "Patient", "Observation")
	fmt.Println(len(names))
	p.Put(names[:0])

	// Output:
	// 2
}

// ExampleScratchPool shows the scratch buffers used while encoding.
func ExampleScratchPool() {
	scratch := pool.NewScratchPool(1024)

	buf := scratch.Get()
	buf.WriteString("PAR1")
	fmt.Println(buf.Len())
	scratch.Put(buf)

	again := scratch.Get()
	fmt.Println(again.Len())
	scratch.Put(again)

	// Output:
	// 4
	// 0
}

func TestPoolConcurrentUse(t *testing.T) {
	p := pool.New(
		func() *bytes.Buffer { return new(bytes.Buffer) },
		func(b *bytes.Buffer) { b.Reset() },
	)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := p.Get()
				fmt.Fprintf(b, "%d-%d", i, j)
				p.Put(b)
			}
		}(i)
	}
	wg.Wait()

	allocated, inUse, hits := p.Stats()
	assert.Equal(t, int64(0), inUse)
	assert.Positive(t, allocated)
	assert.Equal(t, int64(1600), allocated+hits)
}

func TestScratchPoolDropsLargeBuffers(t *testing.T) {
	scratch := pool.NewScratchPool(16)

	buf := scratch.Get()
	buf.Grow(pool.MaxRetainedBuffer + 1)
	scratch.Put(buf)
	scratch.Put(nil)

	_, inUse, _ := scratch.Stats()
	assert.Equal(t, int64(0), inUse)

	next := scratch.Get()
	assert.LessOrEqual(t, next.Cap(), pool.MaxRetainedBuffer)
	scratch.Put(next)
}
