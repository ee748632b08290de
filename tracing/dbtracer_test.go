package tracing

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl *gomock.Controller
		backend  *MockDataRecorder
		tracer   *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backend = NewMockDataRecorder(mockCtrl)

		backend.EXPECT().CreateTable("trace_tasks", gomock.Any())
		backend.EXPECT().CreateTable("trace_intervals", gomock.Any())
		tracer = NewDBTracer(backend)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write a completed task", func() {
		start := time.Unix(100, 0)
		end := time.Unix(101, 0)

		backend.EXPECT().InsertData("trace_tasks", taskTableEntry{
			ID:        1,
			ParentID:  0,
			Label:     "request",
			StartTime: start.UnixNano(),
			EndTime:   end.UnixNano(),
		})

		tracer.StartTask(Task{ID: 1, Label: "request", StartTime: start})
		tracer.EndTask(Task{ID: 1, Label: "request", EndTime: end})
	})

	It("should ignore ends without a matching start", func() {
		tracer.EndTask(Task{ID: 9, Label: "request", EndTime: time.Now()})
	})

	It("should write intervals as they complete", func() {
		backend.EXPECT().InsertData("trace_intervals", intervalTableEntry{
			TaskID:   3,
			Label:    "parse",
			Duration: int64(5 * time.Millisecond),
		})

		tracer.EndInterval(Interval{
			TaskID:   3,
			Label:    "parse",
			Duration: 5 * time.Millisecond,
		})
	})

	It("should flush the backend on terminate", func() {
		backend.EXPECT().Flush()

		tracer.Terminate()
	})
})
