package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aisflow/aisflow/internal/scan"
	"github.com/aisflow/aisflow/internal/store"
	"github.com/aisflow/aisflow/pkg/parse"
	"github.com/aisflow/aisflow/pkg/validate"
)

// fakeSink records batches in memory and can be told to fail.
type fakeSink struct {
	name string

	mu      sync.Mutex
	rows    int64
	batches int64
	fail    bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) InsertBatch(ctx context.Context, recs []*parse.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("injected persistence failure")
	}
	f.rows += int64(len(recs))
	f.batches++
	return nil
}

func (f *fakeSink) count() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	clean *fakeSink
	dirty *fakeSink

	mu      sync.Mutex
	sources map[string]store.SourceFile
	dropped bool
	created bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clean:   &fakeSink{name: "clean"},
		dirty:   &fakeSink{name: "dirty"},
		sources: make(map[string]store.SourceFile),
	}
}

func (s *fakeStore) Clean() store.Sink { return s.clean }
func (s *fakeStore) Dirty() store.Sink { return s.dirty }

func (s *fakeStore) DropIndices(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped = true
	return nil
}

func (s *fakeStore) CreateIndices(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	return nil
}

func (s *fakeStore) HasIngested(ctx context.Context, filename string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sources[filename]
	return ok, nil
}

func (s *fakeStore) RecordIngestion(ctx context.Context, sf store.SourceFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[sf.Filename] = sf
	return nil
}

func (s *fakeStore) Close(ctx context.Context) error { return nil }

const csvHeader = "MMSI,Time,Message_ID,Navigational_status,SOG,Longitude,Latitude,COG,Heading,IMO,Draught,Destination,Vessel_Name,ETA_month,ETA_day,ETA_hour,ETA_minute"

// writeFile drops a test input file into dir and returns its scan.File.
func writeFile(t *testing.T, dir, name, content string) scan.File {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return scan.File{Path: path, Name: name, Ext: filepath.Ext(name)}
}

// testInput is a CSV with two clean rows, one dirty row (bad MMSI range)
// and one invalid row (malformed timestamp).
func testInput() string {
	return csvHeader + "\n" +
		"227006760,20120101_120000,1,0,10.5,1.5,50.2,200.1,180,9074729,5.5,ROTTERDAM,ALPHA,3,15,14,30\n" +
		"235010320,20120101_120100,5,,,0,0,,,,,HAMBURG,BRAVO,,,,\n" +
		"1234,20120101_120200,1,0,10.5,1.5,50.2,200.1,180,,5.5,GDANSK,CHARLIE,3,15,14,30\n" +
		"227006760,not-a-time,1,0,10.5,1.5,50.2,200.1,180,,5.5,OSLO,DELTA,3,15,14,30\n"
}

func newTestPipeline(st store.Store, dir string) *Pipeline {
	return New(st, Config{
		QueueCapacity: 64,
		ErrorLogDir:   filepath.Join(dir, "errors"),
		Rules:         validate.DefaultRules(),
	}, nil)
}

func TestRunClassifiesAndDrains(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "feed1.csv", testInput())
	st := newFakeStore()

	p := newTestPipeline(st, dir)
	if err := p.Run(context.Background(), []scan.File{f}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	m := p.Metrics()
	if got := m.Clean.Load(); got != 2 {
		t.Errorf("clean = %d, want 2", got)
	}
	if got := m.Dirty.Load(); got != 1 {
		t.Errorf("dirty = %d, want 1", got)
	}
	if got := m.Invalid.Load(); got != 1 {
		t.Errorf("invalid = %d, want 1", got)
	}

	// Drain guarantee: everything enqueued was persisted before Run
	// returned.
	if st.clean.count() != m.Clean.Load() {
		t.Errorf("clean persisted %d != enqueued %d", st.clean.count(), m.Clean.Load())
	}
	if st.dirty.count() != m.Dirty.Load() {
		t.Errorf("dirty persisted %d != enqueued %d", st.dirty.count(), m.Dirty.Load())
	}
	if !st.dropped || !st.created {
		t.Error("indices must be dropped before and rebuilt after the run")
	}

	sf, ok := st.sources["feed1.csv"]
	if !ok {
		t.Fatal("missing SourceFile record")
	}
	if sf.Clean != 2 || sf.Dirty != 1 || sf.Invalid != 1 || sf.Ext != ".csv" {
		t.Errorf("SourceFile = %+v", sf)
	}
}

func TestRunWritesErrorLog(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "feed1.csv", testInput())
	st := newFakeStore()

	if err := newTestPipeline(st, dir).Run(context.Background(), []scan.File{f}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	logPath := filepath.Join(dir, "errors", "feed1.csv")
	lf, err := os.Open(logPath)
	if err != nil {
		t.Fatalf("error log missing: %v", err)
	}
	defer lf.Close()

	rows, err := csv.NewReader(lf).ReadAll()
	if err != nil {
		t.Fatalf("read error log: %v", err)
	}
	if len(rows) != 2 { // header + one rejected record
		t.Fatalf("error log has %d rows, want 2", len(rows))
	}
	if rows[0][len(rows[0])-1] != "Error_Message" {
		t.Errorf("last header column = %q", rows[0][len(rows[0])-1])
	}
	entry := rows[1]
	if entry[0] != "227006760" || entry[1] != "not-a-time" {
		t.Errorf("raw values not preserved: %v", entry[:2])
	}
	if !strings.Contains(entry[len(entry)-1], "Time") {
		t.Errorf("rejection reason should name the column: %q", entry[len(entry)-1])
	}
}

func TestRunIdempotency(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "feed1.csv", testInput())
	st := newFakeStore()

	if err := newTestPipeline(st, dir).Run(context.Background(), []scan.File{f}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstClean := st.clean.count()
	firstDirty := st.dirty.count()

	p2 := newTestPipeline(st, dir)
	if err := p2.Run(context.Background(), []scan.File{f}); err != nil {
		t.Fatalf("second run: %v", err)
	}

	m := p2.Metrics()
	if m.RecordsRead.Load() != 0 || m.Clean.Load() != 0 || m.Dirty.Load() != 0 || m.Invalid.Load() != 0 {
		t.Error("re-running an ingested file must produce zero records")
	}
	if m.FilesSkipped.Load() != 1 {
		t.Errorf("skipped = %d, want 1", m.FilesSkipped.Load())
	}
	if st.clean.count() != firstClean || st.dirty.count() != firstDirty {
		t.Error("re-running must cause no additional queue traffic")
	}
}

func TestRunSkipsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "notes.txt", "not ais data")
	st := newFakeStore()

	p := newTestPipeline(st, dir)
	if err := p.Run(context.Background(), []scan.File{f}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p.Metrics().FilesSkipped.Load() != 1 {
		t.Error("unsupported extension must be skipped, not fatal")
	}
	if _, ok := st.sources["notes.txt"]; ok {
		t.Error("skipped files must not get a SourceFile record")
	}
}

func TestRunSkipsFileOnHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	broken := strings.Replace(csvHeader, "Heading,", "", 1) + "\n" +
		"227006760,20120101_120000,1,0,10.5,1.5,50.2,200.1,9074729,5.5,A,B,3,15,14,30\n"
	f := writeFile(t, dir, "broken.csv", broken)
	st := newFakeStore()

	p := newTestPipeline(st, dir)
	if err := p.Run(context.Background(), []scan.File{f}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if st.clean.count() != 0 || st.dirty.count() != 0 {
		t.Error("no records may be ingested from a file with a broken header")
	}
	if _, ok := st.sources["broken.csv"]; ok {
		t.Error("a skipped file must not be marked ingested, so it can be retried")
	}
	if p.Metrics().FilesSkipped.Load() != 1 {
		t.Error("header mismatch must count as a skipped file")
	}
}

func TestRunSurvivesPersistenceFailure(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "feed1.csv", testInput())
	st := newFakeStore()
	st.clean.fail = true

	p := newTestPipeline(st, dir)
	if err := p.Run(context.Background(), []scan.File{f}); err != nil {
		t.Fatalf("persistence failure must not fail the run: %v", err)
	}

	m := p.Metrics()
	if m.PersistFailures.Load() == 0 {
		t.Error("dropped batches must be counted")
	}
	if m.CleanPersisted.Load() != 0 {
		t.Error("failed batches must not count as persisted")
	}
	// The dirty writer is unaffected.
	if st.dirty.count() != m.Dirty.Load() {
		t.Errorf("dirty persisted %d != enqueued %d", st.dirty.count(), m.Dirty.Load())
	}
	// The file still completes and is marked ingested: at-most-once.
	if _, ok := st.sources["feed1.csv"]; !ok {
		t.Error("file must complete despite dropped batches")
	}
}

func TestRunCancellation(t *testing.T) {
	dir := t.TempDir()

	// Enough rows to outlive the immediate cancel.
	var sb strings.Builder
	sb.WriteString(csvHeader + "\n")
	for i := 0; i < 10000; i++ {
		sb.WriteString("227006760,20120101_120000,1,0,10.5,1.5,50.2,200.1,180,,5.5,A,B,3,15,14,30\n")
	}
	f := writeFile(t, dir, "big.csv", sb.String())
	st := newFakeStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestPipeline(st, dir).Run(ctx, []scan.File{f})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunMixedFormats(t *testing.T) {
	dir := t.TempDir()
	csvFile := writeFile(t, dir, "a.csv", csvHeader+"\n"+
		"227006760,20120101_120000,1,0,10.5,1.5,50.2,200.1,180,,5.5,ROTTERDAM,ALPHA,3,15,14,30\n")
	xmlFile := writeFile(t, dir, "b.xml", `<data><aismessage>
<mmsi>227006760</mmsi><date_time>20120101_120100</date_time><msg_type>5</msg_type>
</aismessage></data>`)
	st := newFakeStore()

	p := newTestPipeline(st, dir)
	if err := p.Run(context.Background(), []scan.File{csvFile, xmlFile}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := p.Metrics().Clean.Load(); got != 2 {
		t.Errorf("clean = %d, want 2", got)
	}
	if len(st.sources) != 2 {
		t.Errorf("sources = %d, want 2", len(st.sources))
	}
}
