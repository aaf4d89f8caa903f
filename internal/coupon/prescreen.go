package coupon

import (
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

// Prescreen answers "could this code possibly be valid?" from a local bloom
// filter pack built over the promo-code corpus. A negative answer is
// definitive and saves a network round trip; a positive answer may be a
// false positive and still goes to the remote validator.
type Prescreen struct {
	filter *bloom.BloomFilter
}

// LoadPrescreen reads a coupon pack produced by the couponpack tool.
func LoadPrescreen(path string) (*Prescreen, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open coupon pack")
	}
	defer f.Close()

	filter := &bloom.BloomFilter{}
	if _, err := filter.ReadFrom(f); err != nil {
		return nil, errors.Wrap(err, "read coupon pack")
	}
	return &Prescreen{filter: filter}, nil
}

// NewPrescreen builds a pre-screen directly from a code list. Used by the
// pack builder and by tests.
func NewPrescreen(codes []string, fpRate float64) *Prescreen {
	filter := bloom.NewWithEstimates(uint(max(len(codes), 1)), fpRate)
	for _, c := range codes {
		filter.AddString(normalize(c))
	}
	return &Prescreen{filter: filter}
}

// MayExist reports whether the code could be in the corpus. Codes compare
// case-insensitively, matching the remote service.
func (p *Prescreen) MayExist(code string) bool {
	return p.filter.TestString(normalize(code))
}

// WriteTo serializes the underlying filter to a pack file.
func (p *Prescreen) WriteTo(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create coupon pack")
	}

	if _, err := p.filter.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrap(err, "write coupon pack")
	}
	return f.Close()
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
