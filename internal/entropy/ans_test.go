package entropy

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/jxlgo/jxl/internal/bio"
)

func TestFreqTableSumsToTotal(t *testing.T) {
	counts := []uint32{5, 0, 3, 1, 20}
	table, err := BuildFreqTable(counts, 10)
	if err != nil {
		t.Fatalf("BuildFreqTable: %v", err)
	}
	var sum uint32
	for i, f := range table.Freq {
		if counts[i] == 0 && f != 0 {
			t.Errorf("symbol %d had zero count but nonzero frequency %d", i, f)
		}
		if counts[i] != 0 && f == 0 {
			t.Errorf("symbol %d had nonzero count but zero frequency", i)
		}
		sum += f
	}
	if sum != table.Total {
		t.Errorf("frequencies sum to %d, want %d", sum, table.Total)
	}
}

func TestBuildFreqTableEmptyHistogram(t *testing.T) {
	_, err := BuildFreqTable([]uint32{0, 0, 0}, 8)
	if err == nil {
		t.Fatal("BuildFreqTable with all-zero counts: got nil error")
	}
}

func TestANSEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := 17
	counts := make([]uint32, alphabet)
	for i := range counts {
		counts[i] = uint32(rng.Intn(100) + 1)
	}
	table, err := BuildFreqTable(counts, 12)
	if err != nil {
		t.Fatalf("BuildFreqTable: %v", err)
	}

	symbols := make([]int, 500)
	for i := range symbols {
		symbols[i] = rng.Intn(alphabet)
	}

	encoded := Encode(table, symbols)
	got, err := Decode(table, encoded, len(symbols))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, symbols) {
		t.Fatalf("round trip mismatch:\ngot:  %v\nwant: %v", got, symbols)
	}
}

func TestANSRoundTripSingleSymbolAlphabet(t *testing.T) {
	counts := []uint32{1, 99}
	table, err := BuildFreqTable(counts, 7)
	if err != nil {
		t.Fatalf("BuildFreqTable: %v", err)
	}
	symbols := []int{1, 1, 1, 0, 1, 1, 1, 1, 1}
	encoded := Encode(table, symbols)
	got, err := Decode(table, encoded, len(symbols))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, symbols) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, symbols)
	}
}

func TestSerializeDeserializeFreqTableRoundTrip(t *testing.T) {
	table, err := BuildFreqTable([]uint32{5, 0, 3, 1, 20, 0, 7}, 10)
	if err != nil {
		t.Fatalf("BuildFreqTable: %v", err)
	}
	data := SerializeFreqTable(table)
	got, n, err := DeserializeFreqTable(data)
	if err != nil {
		t.Fatalf("DeserializeFreqTable: %v", err)
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
	if !reflect.DeepEqual(got.Freq, table.Freq) || !reflect.DeepEqual(got.Cum, table.Cum) ||
		got.Total != table.Total || got.ScaleBits != table.ScaleBits {
		t.Fatalf("round trip mismatch:\ngot:  %+v\nwant: %+v", got, table)
	}
}

func TestDeserializeFreqTableTruncated(t *testing.T) {
	if _, _, err := DeserializeFreqTable([]byte{1, 2, 3}); err == nil {
		t.Fatal("DeserializeFreqTable with truncated header: want error")
	}
	table, _ := BuildFreqTable([]uint32{1, 1}, 4)
	data := SerializeFreqTable(table)
	if _, _, err := DeserializeFreqTable(data[:len(data)-1]); err == nil {
		t.Fatal("DeserializeFreqTable with truncated frequencies: want error")
	}
}

func TestDecodeTruncatedStreamFails(t *testing.T) {
	table, _ := BuildFreqTable([]uint32{1, 1}, 4)
	_, err := Decode(table, []byte{1, 2}, 10)
	if err == nil {
		t.Fatal("Decode with truncated stream: got nil error")
	}
}

func TestContextModelEncodeDecode(t *testing.T) {
	m := NewModel()
	ctx := Context{Kind: ContextVarDCT, Channel: 0, Band: 1}
	symbols := []int{0, 1, 2, 1, 1, 0, 3, 2, 1, 0}
	encoded, table, err := EncodeContext(m, ctx, symbols, 4, 10)
	if err != nil {
		t.Fatalf("EncodeContext: %v", err)
	}
	if table == nil {
		t.Fatal("EncodeContext returned nil table")
	}

	decodeModel := NewModel()
	decodeModel.Set(ctx, table)
	got, err := DecodeContext(decodeModel, ctx, encoded, len(symbols))
	if err != nil {
		t.Fatalf("DecodeContext: %v", err)
	}
	if !reflect.DeepEqual(got, symbols) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, symbols)
	}
}

func TestDecodeContextMissingTable(t *testing.T) {
	m := NewModel()
	_, err := DecodeContext(m, Context{Channel: 0}, []byte{0, 0, 0, 0}, 1)
	if err == nil {
		t.Fatal("DecodeContext with no registered table: got nil error")
	}
}

func TestZigzagRunLengthRoundTrip(t *testing.T) {
	coeffs := []int32{5, 0, 0, 3, 0, 0, 0, -2, 0, 0}
	symbols := ZigzagRunLength(coeffs)
	got := ExpandRunLength(symbols, len(coeffs))
	for i := range coeffs {
		if got[i] != coeffs[i] {
			t.Errorf("position %d: got %d, want %d", i, got[i], coeffs[i])
		}
	}
}

func TestZigzagRunLengthAllZero(t *testing.T) {
	coeffs := make([]int32, 16)
	symbols := ZigzagRunLength(coeffs)
	got := ExpandRunLength(symbols, len(coeffs))
	for i := range coeffs {
		if got[i] != 0 {
			t.Errorf("position %d: got %d, want 0", i, got[i])
		}
	}
}

func TestPrefixCodeRoundTrip(t *testing.T) {
	freq := map[int]uint32{0: 50, 1: 20, 2: 15, 3: 10, 4: 5}
	code, err := BuildPrefixCode(freq)
	if err != nil {
		t.Fatalf("BuildPrefixCode: %v", err)
	}
	symbols := []int{0, 0, 1, 2, 0, 4, 3, 0, 1, 0}

	w := bio.NewWriter(nil)
	if err := code.Encode(w, symbols); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	w.Align()

	r := bio.NewReader(w.Bytes())
	got, err := code.Decode(r, len(symbols))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, symbols) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, symbols)
	}
}

func TestBuildPrefixCodeRejectsDegenerateAlphabet(t *testing.T) {
	_, err := BuildPrefixCode(map[int]uint32{0: 10})
	if err == nil {
		t.Fatal("BuildPrefixCode with one symbol: got nil error")
	}
}

func TestPrefixCodeEncodeUnknownSymbol(t *testing.T) {
	freq := map[int]uint32{0: 1, 1: 1}
	code, err := BuildPrefixCode(freq)
	if err != nil {
		t.Fatalf("BuildPrefixCode: %v", err)
	}
	w := bio.NewWriter(nil)
	if err := code.Encode(w, []int{99}); err == nil {
		t.Fatal("Encode with unknown symbol: got nil error")
	}
}
