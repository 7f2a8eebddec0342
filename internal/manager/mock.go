package manager

import "context"

// MockSentinel is the text the mock model returns for every prompt. Real
// expansions never equal it.
const MockSentinel = "expanded query with machine learning algorithms"

const (
	mockInputLen  = 50
	mockOutputPad = 20
	mockEOSID     = 2
)

// mockTokenizer returns fixed-shape placeholder ids for any text.
type mockTokenizer struct{}

func newMockTokenizer() Tokenizer { return withPadToken(mockTokenizer{}) }

func (mockTokenizer) Tokenize(ctx context.Context, _ string) ([]int32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := make([]int32, mockInputLen)
	for i := range ids {
		ids[i] = int32(100 + i)
	}
	return ids, nil
}

func (mockTokenizer) Special() SpecialTokens {
	return SpecialTokens{EOS: "</s>", EOSID: mockEOSID}
}

// mockModel returns a fixed-shape placeholder regardless of input.
type mockModel struct{}

func newMockModel() Model { return mockModel{} }

func (mockModel) Generate(ctx context.Context, _ string, _ GenerateParams) (Generation, error) {
	if err := ctx.Err(); err != nil {
		return Generation{}, err
	}
	ids := make([]int32, mockInputLen+mockOutputPad)
	for i := range ids {
		ids[i] = int32(1000 + i)
	}
	return Generation{Text: MockSentinel, Tokens: ids}, nil
}

func (mockModel) Close() error { return nil }
