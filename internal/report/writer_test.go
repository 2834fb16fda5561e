package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fedicensus/fedicensus/internal/model"
)

func sampleReport(interrupted bool) *model.Report {
	instances := []*model.InstanceRecord{
		{
			Domain:           "big.example",
			Name:             "Big Instance",
			Software:         "lemmy",
			Version:          "0.19.3",
			TotalUsers:       1234567,
			UsersActiveMonth: 8901,
			Posts:            100,
			Comments:         200,
		},
		{
			Domain:           "small.example",
			Name:             "Small Instance",
			Software:         "mastodon",
			Version:          "4.2.1",
			TotalUsers:       12,
			UsersActiveMonth: 3,
		},
	}
	failures := []*model.FetchFailure{
		{Domain: "down.example", Kind: model.FailureUnreachable, Detail: "connection refused"},
		{Domain: "slow.example", Kind: model.FailureTimeout},
	}
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return model.NewReport(instances, failures, start, start.Add(90*time.Second), interrupted)
}

func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("complete report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewTextWriter(&buf).Write(sampleReport(false))
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write returned %d, buffer has %d bytes", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{
			"1,234,567",     // grouped total users
			"big.example",   // largest instance listed
			"down.example",  // failure listed
			"unreachable",   // failure kind
			"(2 failed)",    // failure count in summary
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "interrupted") {
			t.Error("complete report mentions interruption")
		}
	})

	t.Run("interrupted report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).Write(sampleReport(true)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.Contains(buf.String(), "interrupted") {
			t.Error("interrupted report does not say so")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleReport(false)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Federation Crawl Report",
		"## Network Totals",
		"## Instances",
		"## Failed Instances",
		"`big.example`",
		"lemmy 0.19.3",
		"connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("round trips through JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(sampleReport(false)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		var got model.Report
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.TotalUsers != 1234579 {
			t.Errorf("TotalUsers = %d, want 1234579", got.TotalUsers)
		}
		if len(got.InstanceDetails) != 2 || len(got.FailedInstances) != 2 {
			t.Errorf("got %d instances / %d failures, want 2/2",
				len(got.InstanceDetails), len(got.FailedInstances))
		}
	})

	t.Run("peers excluded from output", func(t *testing.T) {
		t.Parallel()

		rep := sampleReport(false)
		rep.InstanceDetails[0].Peers = []string{"secret.example"}

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(rep); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if strings.Contains(buf.String(), "secret.example") {
			t.Error("peer list leaked into JSON output")
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(sampleReport(false)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"") {
			t.Error("pretty-printed output is not indented")
		}
	})
}

// failWriter fails after a fixed number of writes.
type failWriter struct {
	n int
}

func (f *failWriter) Write(p []byte) (int, error) {
	if f.n <= 0 {
		return 0, errors.New("write failed")
	}
	f.n--
	return len(p), nil
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewTextWriter(&a), NewJSONWriter(&b))
		if _, err := mw.Write(sampleReport(false)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("one of the writers received no output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(NewJSONWriter(&failWriter{}), NewJSONWriter(&after))
		if _, err := mw.Write(sampleReport(false)); err == nil {
			t.Fatal("Write succeeded despite failing writer")
		}
		if after.Len() != 0 {
			t.Error("writer after the failure still received output")
		}
	})
}
