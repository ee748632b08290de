package tracing

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/drewcrawford/logwise"
)

var _ = Describe("CollectTraces", func() {
	BeforeEach(func() {
		logwise.SetGlobalLoggers([]logwise.Logger{
			logwise.NewInMemoryLogger()})
		logwise.SetMinLevel(logwise.LevelTrace)
	})

	It("should observe the full task lifecycle", func() {
		tracer := NewTotalTimeTracer(TaskWithLabel("traced work"))
		CollectTraces(tracer)

		ctx := logwise.NewTask(nil, "traced work", logwise.LevelInfo, false)
		time.Sleep(time.Millisecond)
		ctx.Release()

		Expect(tracer.TotalTime()).To(BeNumerically(">", 0))
	})

	It("should observe completed intervals", func() {
		tracer := NewIntervalCountTracer(AnyTask)
		CollectTraces(tracer)

		logwise.Reset("interval tracing")
		interval := logwise.BeginPerfwarn("traced interval")
		interval.End()

		Expect(tracer.Count("traced interval")).To(Equal(uint64(1)))
	})
})
