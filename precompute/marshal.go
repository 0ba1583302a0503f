package precompute

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// serialized layout; values travel as big-endian byte strings.
type layout struct {
	NbBits  int      `cbor:"1,keyasint"`
	Maximum uint64   `cbor:"2,keyasint"`
	Keys    []uint64 `cbor:"3,keyasint"`
	Values  [][]byte `cbor:"4,keyasint"`
}

// WriteTo serializes the table using deterministic CBOR. It implements
// [io.WriterTo].
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return 0, err
	}
	data := layout{
		NbBits:  t.nbBits,
		Maximum: t.maximum,
		Keys:    t.keys,
		Values:  make([][]byte, len(t.values)),
	}
	for i, v := range t.values {
		data.Values[i] = v.Bytes()
	}
	var buf bytes.Buffer
	if err := em.NewEncoder(&buf).Encode(&data); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom deserializes a table written by [Table.WriteTo] and re-validates
// every layout invariant before committing it; a corrupted or hand-crafted
// stream is rejected rather than producing a table with a broken ordering.
// It implements [io.ReaderFrom].
func (t *Table) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	var data layout
	if err := cbor.NewDecoder(cr).Decode(&data); err != nil {
		return cr.n, err
	}
	if err := data.validate(); err != nil {
		return cr.n, fmt.Errorf("invalid table stream: %w", err)
	}
	t.nbBits = data.NbBits
	t.maximum = data.Maximum
	t.keys = data.Keys
	t.values = make([]*big.Int, len(data.Values))
	for i, b := range data.Values {
		t.values[i] = new(big.Int).SetBytes(b)
	}
	return cr.n, nil
}

func (l *layout) validate() error {
	if l.NbBits < 1 || l.NbBits > 64 {
		return fmt.Errorf("bit width %d outside [1,64]", l.NbBits)
	}
	if l.NbBits < 64 && l.Maximum > (uint64(1)<<l.NbBits)-1 {
		return fmt.Errorf("maximum %#x does not fit %d bits", l.Maximum, l.NbBits)
	}
	if len(l.Keys) < 3 {
		return fmt.Errorf("padded layout has %d slots, need at least 3", len(l.Keys))
	}
	if len(l.Values) != len(l.Keys)+1 {
		return fmt.Errorf("%d values for %d key slots", len(l.Values), len(l.Keys))
	}
	if l.Keys[0] != 0 {
		return errors.New("layout must start at key 0")
	}
	if last := l.Keys[len(l.Keys)-1]; last != l.Maximum {
		return fmt.Errorf("layout ends at %#x, want maximum %#x", last, l.Maximum)
	}
	// padding slots may duplicate their neighbour, the interior is strict
	for i := 1; i+2 < len(l.Keys); i++ {
		if l.Keys[i] >= l.Keys[i+1] {
			return fmt.Errorf("keys not strictly increasing at slot %d", i)
		}
	}
	if l.Keys[0] > l.Keys[1] || l.Keys[len(l.Keys)-2] > l.Keys[len(l.Keys)-1] {
		return errors.New("padding slots out of order")
	}
	if len(l.Values[0]) != 0 {
		return errors.New("slot 0 must hold the zero value")
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
