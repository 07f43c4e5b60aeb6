package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStage(t *testing.T) {
	before := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("redacting", OutcomeSuccess))
	ObserveStage("redacting", OutcomeSuccess, 2*time.Second)
	after := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("redacting", OutcomeSuccess))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestRecordRedaction(t *testing.T) {
	before := testutil.ToFloat64(RegionsBlurredTotal.WithLabelValues("guided"))
	RecordRedaction("guided", 10, 7)
	if got := testutil.ToFloat64(RegionsBlurredTotal.WithLabelValues("guided")) - before; got != 7 {
		t.Fatalf("expected 7 regions recorded, got %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	UploadsTotal.Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "seen_uploads_total") {
		t.Fatalf("expected seen_uploads_total in exposition, got:\n%.500s", body)
	}
}
