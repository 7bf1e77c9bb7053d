package query

import (
	"sync"
	"testing"

	"github.com/graphboard/graphboard/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameters_PublishesOnlyOnChange(t *testing.T) {
	p := NewParameters(types.QueryParameters{})

	var got []types.QueryParameters
	p.Subscribe(func(q types.QueryParameters) { got = append(got, q) })

	assert.True(t, p.SetTaskIdentifierFilter(types.Ptr("send_email")))
	assert.False(t, p.SetTaskIdentifierFilter(types.Ptr("send_email")))
	assert.True(t, p.SetTaskIdentifierFilter(nil))
	assert.False(t, p.SetTaskIdentifierFilter(nil))

	require.Len(t, got, 2)
	assert.Equal(t, "send_email", *got[0].Filters.TaskIdentifier)
	assert.Nil(t, got[1].Filters.TaskIdentifier)
}

func TestParameters_PublishesInMutationOrder(t *testing.T) {
	p := NewParameters(types.QueryParameters{})

	var pages []int
	p.Subscribe(func(q types.QueryParameters) { pages = append(pages, q.Page()) })

	for page := 2; page <= 5; page++ {
		p.SetPage(page)
	}
	assert.Equal(t, []int{2, 3, 4, 5}, pages)
}

func TestParameters_ConcurrentWritersPublishEveryChange(t *testing.T) {
	p := NewParameters(types.QueryParameters{})

	var mu sync.Mutex
	published := 0
	p.Subscribe(func(types.QueryParameters) {
		mu.Lock()
		published++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			p.SetPage(page + 2)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, published)
}

func TestParameters_SetPageKeepsItemsPerPage(t *testing.T) {
	p := NewParameters(types.QueryParameters{
		Pagination: types.Pagination{Page: types.Ptr(1), ItemsPerPage: types.Ptr(50)},
	})

	p.SetPage(4)
	got := p.Get()
	assert.Equal(t, 4, got.Page())
	assert.Equal(t, 50, got.ItemsPerPage())

	p.SetItemsPerPage(10)
	got = p.Get()
	assert.Equal(t, 4, got.Page())
	assert.Equal(t, 10, got.ItemsPerPage())
}

func TestParameters_SetOrder(t *testing.T) {
	p := NewParameters(types.QueryParameters{})

	assert.True(t, p.SetOrder(types.OrderByRunAt, types.Desc))
	assert.False(t, p.SetOrder(types.OrderByRunAt, types.Desc))

	got := p.Get()
	require.NotNil(t, got.Order.Field)
	assert.Equal(t, types.OrderByRunAt, *got.Order.Field)
	assert.Equal(t, types.Desc, *got.Order.Direction)
}

func TestParameters_GetReturnsCopy(t *testing.T) {
	filter := "send_email"
	initial := types.QueryParameters{Filters: types.Filters{TaskIdentifier: &filter}}
	p := NewParameters(initial)

	filter = "changed"
	got := p.Get()
	*got.Filters.TaskIdentifier = "mutated"

	assert.Equal(t, "send_email", *p.Get().Filters.TaskIdentifier)
}

func TestParameters_Unsubscribe(t *testing.T) {
	p := NewParameters(types.QueryParameters{})

	calls := 0
	unsubscribe := p.Subscribe(func(types.QueryParameters) { calls++ })

	p.SetPage(2)
	unsubscribe()
	unsubscribe()
	p.SetPage(3)

	assert.Equal(t, 1, calls)
}

func TestParameters_SetReplacesEverything(t *testing.T) {
	p := NewParameters(types.QueryParameters{
		Filters: types.Filters{TaskIdentifier: types.Ptr("a")},
	})

	assert.True(t, p.Set(types.QueryParameters{Pagination: types.Pagination{Page: types.Ptr(2)}}))

	got := p.Get()
	assert.Nil(t, got.Filters.TaskIdentifier)
	assert.Equal(t, 2, got.Page())
}
