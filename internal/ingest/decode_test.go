package ingest

import (
	"errors"
	"reflect"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestDecodeTable_UTF8(t *testing.T) {
	data := []byte("SKU编码,产品名称,零售价\nA-1,保温杯,99\nA-2,茶具,128\n")

	rows, err := DecodeTable(data)
	if err != nil {
		t.Fatalf("DecodeTable() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	want := []string{"A-1", "保温杯", "99"}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("rows[1] = %v, want %v", rows[1], want)
	}
}

func TestDecodeTable_GBKFallback(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("产品名称,零售价\n礼盒,58\n"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	rows, err := DecodeTable(gbk)
	if err != nil {
		t.Fatalf("DecodeTable() error = %v", err)
	}
	if rows[1][0] != "礼盒" {
		t.Errorf("rows[1][0] = %q, want %q", rows[1][0], "礼盒")
	}
}

func TestDecodeTable_CRLFAndBlankLines(t *testing.T) {
	data := []byte("a,b\r\n\r\n1,2\r\n   \r\n3,4\r\n")

	rows, err := DecodeTable(data)
	if err != nil {
		t.Fatalf("DecodeTable() error = %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3 (blank lines discarded)", len(rows))
	}
	if rows[2][1] != "4" {
		t.Errorf("rows[2][1] = %q, want %q", rows[2][1], "4")
	}
}

func TestDecodeTable_TooFewRows(t *testing.T) {
	for _, data := range [][]byte{
		[]byte(""),
		[]byte("a,b,c\n"),
		[]byte("\n\n\n"),
	} {
		_, err := DecodeTable(data)
		var formatErr *FormatError
		if !errors.As(err, &formatErr) {
			t.Errorf("DecodeTable(%q) error = %v, want *FormatError", data, err)
		}
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`A,B,C`, []string{"A", "B", "C"}},
		{`A,"B,C",D`, []string{"A", "B,C", "D"}},
		{` A , B `, []string{"A", "B"}},
		{`"高端,礼盒",99`, []string{"高端,礼盒", "99"}},
		{`solo`, []string{"solo"}},
		{`a,,c`, []string{"a", "", "c"}},
		{`trailing,`, []string{"trailing", ""}},
	}
	for _, tt := range tests {
		got := SplitLine(tt.line)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
