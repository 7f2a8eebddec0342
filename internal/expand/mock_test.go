package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qexpand/internal/manager"
)

func TestMockExpand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ML algos", "machine learning algorithms"},
		{"  ml algos ", "machine learning algorithms"},
		{"Deep Lerning", "deep learning"},
		{"data sci", "data science"},
		{"cnn", "convolutional neural networks"},
		{"enginer", "engineer"},
		{"AI/ML enginer jobs", "AI/ML engineer jobs"},
		{"sorting algos", "sorting algorithms"},
		{"algorithm design", "enhanced algorithm design"},
		{"computer vison systems", "computer vision systems"},
		{"sci", "science"},
		{"intro to sci fiction", "enhanced intro to sci fiction"},
		{"k8s", "k8s techniques and applications"},
		{"rust", "rust techniques and applications"},
		{"kubernetes", "enhanced kubernetes"},
		{"how to bake bread", "enhanced how to bake bread"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, MockExpand(tc.in))
		})
	}
}

func TestMockExpand_NeverEchoesOrSentinel(t *testing.T) {
	for _, q := range []string{"a", "query", "ML algos", "some longer search", "algorithm"} {
		out := Clean(MockExpand(q))
		assert.NotEmpty(t, out)
		assert.NotEqual(t, q, out)
		assert.NotEqual(t, manager.MockSentinel, out)
	}
}

func TestMockExpand_Deterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		require.Equal(t, "AI/ML engineer jobs", MockExpand("AI/ML enginer jobs"))
	}
}
