package monitoring

import (
	"encoding/json"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/drewcrawford/logwise/tracing"
)

var _ = Describe("Monitor", func() {
	var m *Monitor

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should track live tasks", func() {
		m.StartTask(tracing.Task{ID: 1, Label: "a", StartTime: time.Now()})
		m.StartTask(tracing.Task{ID: 2, Label: "b", StartTime: time.Now()})
		m.EndTask(tracing.Task{ID: 1, Label: "a", EndTime: time.Now()})

		tasks := m.sortedLiveTasks()
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].ID).To(Equal(uint64(2)))
	})

	It("should list live tasks as JSON", func() {
		m.StartTask(tracing.Task{ID: 3, Label: "c", StartTime: time.Now()})

		w := httptest.NewRecorder()
		m.listTasks(w, httptest.NewRequest("GET", "/api/tasks", nil))

		var tasks []tracing.Task
		err := json.Unmarshal(w.Body.Bytes(), &tasks)
		Expect(err).To(BeNil())
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].Label).To(Equal("c"))
	})

	It("should aggregate stats across tasks and intervals", func() {
		m.StartTask(tracing.Task{ID: 4, Label: "d", StartTime: time.Now()})
		m.EndInterval(tracing.Interval{
			TaskID: 4, Label: "step", Duration: time.Millisecond})
		m.EndTask(tracing.Task{ID: 4, Label: "d", EndTime: time.Now()})

		w := httptest.NewRecorder()
		m.listStats(w, httptest.NewRequest("GET", "/api/stats", nil))

		var rsp statsRsp
		err := json.Unmarshal(w.Body.Bytes(), &rsp)
		Expect(err).To(BeNil())
		Expect(rsp.LiveTasks).To(Equal(0))
		Expect(rsp.CompletedTasks).To(Equal(uint64(1)))
		Expect(rsp.Intervals).To(HaveLen(1))
		Expect(rsp.Intervals[0].Label).To(Equal("step"))
		Expect(rsp.Intervals[0].Count).To(Equal(uint64(1)))
	})

	It("should reject flat-out invalid task IDs", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/task/abc", nil)

		m.taskDetails(w, r)

		Expect(w.Code).To(Equal(400))
	})

	It("should reject low port numbers", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})

	It("should keep valid port numbers", func() {
		m.WithPortNumber(8080)

		Expect(m.portNumber).To(Equal(8080))
	})
})
