package document

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/FrenchMajesty/veracious/pkg/annotator"
	"github.com/FrenchMajesty/veracious/pkg/testutil"
	"github.com/FrenchMajesty/veracious/pkg/types"
	"github.com/stretchr/testify/require"
)

const feedHTML = `<html><body><main id="timeline">
<article><div data-testid="tweetText"><span>First post about the election results</span></div></article>
<article><div data-testid="tweetText">  short  </div></article>
<article><div data-testid="tweetText">Second post with <a href="#">a link</a> inside</div></article>
<article><div data-testid="User-Name">not a tweet body at all</div></article>
</main></body></html>`

func TestItems(t *testing.T) {
	doc, err := NewFromString(feedHTML)
	require.NoError(t, err)

	items, err := doc.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.Equal(t, "First post about the election results", items[0].Text())
	require.Equal(t, "Second post with a link inside", items[2].Text())

	again, err := doc.Items(context.Background())
	require.NoError(t, err)
	for i := range items {
		require.Equal(t, items[i].ID(), again[i].ID(), "expected ids to be stable across scans")
	}
}

// TestItem_Annotation tests that tags are excluded from the item's text and tracked separately from placeholders
func TestItem_Annotation(t *testing.T) {
	doc, err := NewFromString(feedHTML)
	require.NoError(t, err)
	items, _ := doc.Items(context.Background())
	item := items[0]
	original := item.Text()

	require.NoError(t, item.MarkPending(annotator.PendingHTML))
	require.True(t, item.Pending())
	require.False(t, item.Annotated())

	require.NoError(t, item.ClearPending())
	require.False(t, item.Pending())

	tag := annotator.NewTag(types.Classification{PoliticalLean: types.LeanLeft, ManipulationScore: 42})
	require.NoError(t, item.Attach(tag.HTML()))
	require.True(t, item.Annotated())
	require.Equal(t, original, item.Text())

	out, err := doc.HTML()
	require.NoError(t, err)
	require.Contains(t, out, "mani: 42%")
	require.Less(t, strings.Index(out, "mani: 42%"), strings.Index(out, "First post"), "expected tag to be prepended")
}

func TestOnChange(t *testing.T) {
	doc, err := NewFromString(feedHTML)
	require.NoError(t, err)

	var calls atomic.Int32
	cancel := doc.OnChange(func() { calls.Add(1) })

	require.NoError(t, doc.Append("#timeline", `<article><div data-testid="tweetText">A freshly loaded post</div></article>`))
	require.Equal(t, int32(1), calls.Load())

	items, _ := doc.Items(context.Background())
	require.Len(t, items, 4)
	require.NoError(t, items[3].MarkPending(annotator.PendingHTML))
	require.Equal(t, int32(2), calls.Load())

	cancel()
	require.NoError(t, doc.Remove("article"))
	require.Equal(t, int32(2), calls.Load())
}

func TestItem_Detached(t *testing.T) {
	doc, err := NewFromString(feedHTML)
	require.NoError(t, err)
	items, _ := doc.Items(context.Background())

	require.NoError(t, doc.Remove("article"))
	require.Equal(t, "", items[0].Text())

	err = items[0].Attach("<div>tag</div>")
	require.True(t, errors.Is(err, ErrDetached))
}

func TestAppend_NoMatch(t *testing.T) {
	doc, err := NewFromString(feedHTML)
	require.NoError(t, err)
	require.Error(t, doc.Append("#missing", "<p>x</p>"))
}

// TestAnnotatorCycle tests the pipeline against a parsed page
func TestAnnotatorCycle(t *testing.T) {
	ctx := context.Background()
	doc, err := NewFromString(feedHTML)
	require.NoError(t, err)

	mock := &testutil.MockClassifier{}
	a, err := annotator.New(annotator.Config{Document: doc, Classifier: mock})
	require.NoError(t, err)
	defer a.Close()

	out, err := a.Cycle(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, 2, out.Annotated)
	require.Equal(t, []string{"First post about the election results", "Second post with a link inside"}, mock.Batches[0])

	out, err = a.Cycle(ctx)
	require.NoError(t, err)
	require.Nil(t, out)

	html, err := doc.HTML()
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(html, `class="`+annotator.TagClass+`"`))
	require.NotContains(t, html, annotator.PendingClass)
}
