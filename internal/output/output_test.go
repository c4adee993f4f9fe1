package output

import (
	"bytes"
	"errors"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/micromag/internal/fsutil"
	"github.com/banshee-data/micromag/internal/grid"
	"github.com/banshee-data/micromag/internal/quant"
)

func vectorRecord() *Record {
	size := grid.Size{NX: 3, NY: 2, NZ: 2}
	a := quant.NewArray(3, size)
	for idx := 0; idx < size.NCells(); idx++ {
		a.Data[0][idx] = float64(idx)
		a.Data[1][idx] = 0.5
		a.Data[2][idx] = -1e-9
	}
	return &Record{
		Name:  "m",
		Time:  2e-12,
		Step:  1,
		Field: a,
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rec := vectorRecord()
	rec.Unit = "A/m"
	require.NoError(t, WriteText(&buf, rec))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "# name: m", lines[0])
	assert.Contains(t, lines, "# unit: A/m")
	assert.Contains(t, lines, "# time: 2e-12")
	assert.Contains(t, lines, "# grid: 3x2x2")
	assert.Contains(t, lines, "# i j k m_x m_y m_z")

	var body []string
	for _, l := range lines {
		if !strings.HasPrefix(l, "#") {
			body = append(body, l)
		}
	}
	require.Len(t, body, 12)
	assert.Equal(t, "0 0 0 0 0.5 -1e-09", body[0])
	assert.Equal(t, "1 0 0 1 0.5 -1e-09", body[1])
	assert.Equal(t, "0 1 0 3 0.5 -1e-09", body[3])
	assert.Equal(t, "2 1 1 11 0.5 -1e-09", body[11])
}

func TestWriteTextUniformHeader(t *testing.T) {
	t.Parallel()

	size := grid.Size{NX: 1, NY: 1, NZ: 1}
	rec := &Record{Name: "alpha", Value: []float64{0.02}, Field: quant.UniformArray([]float64{0.02}, size)}
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, rec))
	assert.Contains(t, buf.String(), "# uniform: 0.02\n")
	assert.Contains(t, buf.String(), "# i j k alpha\n")
}

func TestBinaryRoundTrip(t *testing.T) {
	t.Parallel()

	rec := vectorRecord()
	rec.Options = []string{"Text"}
	blob, err := EncodeBlob(rec)
	require.NoError(t, err)

	got, err := DecodeBlob(blob)
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("record changed through blob (-want +got):\n%s", diff)
	}

	_, err = DecodeBlob(nil)
	assert.Error(t, err)
	_, err = DecodeBlob([]byte("not gzip"))
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	t.Parallel()

	rec := vectorRecord()
	rec.Options = []string{"layer=1", "x"}
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, rec))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestWritePNGFlatField(t *testing.T) {
	t.Parallel()

	size := grid.Size{NX: 2, NY: 2, NZ: 1}
	rec := &Record{Name: "Msat", Field: quant.UniformArray([]float64{8e5}, size)}
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, rec))
	assert.NotZero(t, buf.Len())
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	rec := vectorRecord()
	rec.Options = []string{"norm"}
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, rec))
	assert.Contains(t, buf.String(), "<html")
	assert.Contains(t, buf.String(), "|m|")
}

func TestParseView(t *testing.T) {
	t.Parallel()

	rec := vectorRecord()
	cases := []struct {
		opts []string
		want view
	}{
		{nil, view{}},
		{[]string{"Text"}, view{}},
		{[]string{"z"}, view{comp: 2}},
		{[]string{"comp=1", "layer=1"}, view{comp: 1, layer: 1}},
		{[]string{"norm"}, view{norm: true}},
	}
	for _, tc := range cases {
		rec.Options = tc.opts
		got, err := parseView(rec)
		require.NoError(t, err, tc.opts)
		assert.Equal(t, tc.want, got, tc.opts)
	}

	for _, bad := range [][]string{{"comp=3"}, {"layer=2"}, {"layer=x"}} {
		rec.Options = bad
		_, err := parseView(rec)
		assert.Error(t, err, bad)
	}
	rec.Options = []string{"comp=3"}
	_, err := parseView(rec)
	assert.ErrorIs(t, err, quant.ErrIndexOutOfRange)
}

func TestFileWriter(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	w := NewFileWriter("/out", mfs)

	for _, format := range Formats() {
		rec := vectorRecord()
		rec.Format = format
		rec.Path = filepath.Join("sub", "m000000."+Extension(format))
		require.NoError(t, w.Persist(rec), format)
	}
	assert.Equal(t, []string{
		"/out/sub/m000000.bin",
		"/out/sub/m000000.html",
		"/out/sub/m000000.png",
		"/out/sub/m000000.txt",
	}, mfs.Files("/out"))

	data, err := mfs.ReadFile("/out/sub/m000000.bin")
	require.NoError(t, err)
	got, err := DecodeBlob(data)
	require.NoError(t, err)
	assert.Equal(t, "m", got.Name)

	rec := vectorRecord()
	rec.Format = "ovf"
	rec.Path = "m.ovf"
	assert.ErrorIs(t, w.Persist(rec), ErrUnknownFormat)
	assert.False(t, mfs.Exists("/out/m.ovf"))
}

func TestFileWriterAbsolutePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewFileWriter("ignored", nil)
	rec := vectorRecord()
	rec.Format = FormatText
	rec.Path = filepath.Join(dir, "m.txt")
	require.NoError(t, w.Persist(rec))
	assert.True(t, fsutil.OSFileSystem{}.Exists(rec.Path))
}

func TestRouter(t *testing.T) {
	t.Parallel()

	var got []string
	r := Router{
		"db": PersisterFunc(func(rec *Record) error {
			got = append(got, rec.Name)
			return nil
		}),
		"bad": PersisterFunc(func(*Record) error { return errors.New("boom") }),
	}
	require.NoError(t, r.Persist(&Record{Name: "m", Format: "db"}))
	assert.Equal(t, []string{"m"}, got)
	assert.EqualError(t, r.Persist(&Record{Format: "bad"}), "boom")
	assert.ErrorIs(t, r.Persist(&Record{Format: "ovf"}), ErrUnknownFormat)
}
