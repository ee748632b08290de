package logwise

import (
	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = g.Describe("Current context cell", func() {
	g.BeforeEach(func() {
		installTestLogger()
		Reset("cell test")
	})

	g.It("should lazily install an unlabeled root", func() {
		done := make(chan bool)

		go func() {
			defer g.GinkgoRecover()
			defer close(done)

			ctx := Current()
			Expect(ctx.NestingLevel()).To(Equal(0))
			Expect(ctx.Task().Label()).To(Equal(""))
		}()

		Eventually(done).Should(BeClosed())
	})

	g.It("should keep cells independent across goroutines", func() {
		hereID := Current().ContextID()
		done := make(chan ContextID, 1)

		go func() {
			defer g.GinkgoRecover()
			done <- Current().ContextID()
		}()

		var thereID ContextID
		Eventually(done).Should(Receive(&thereID))
		Expect(thereID).ToNot(Equal(hereID))
		Expect(Current().ContextID()).To(Equal(hereID))
	})
})

var _ = g.Describe("Apply", func() {
	g.BeforeEach(func() {
		installTestLogger()
		Reset("apply test")
	})

	g.It("should install the context for the duration of fn", func() {
		outer := Current().ContextID()

		scope := FromParent(Current())
		defer scope.Release()

		Apply(scope, func() {
			Expect(Current().ContextID()).To(Equal(scope.ContextID()))
		})

		Expect(Current().ContextID()).To(Equal(outer))
	})

	g.It("should restore the previous context even when fn panics", func() {
		outer := Current().ContextID()

		scope := FromParent(Current())
		defer scope.Release()

		Expect(func() {
			Apply(scope, func() {
				panic("boom")
			})
		}).To(Panic())

		Expect(Current().ContextID()).To(Equal(outer))
	})
})

var _ = g.Describe("Go", func() {
	var logger *InMemoryLogger

	g.BeforeEach(func() {
		logger = installTestLogger()
		Reset("go test")
	})

	g.It("should run fn under a child of the spawner's context", func() {
		parentTask := Current().TaskID()
		done := make(chan TaskID, 1)

		Go(func() {
			done <- Current().TaskID()
		})

		var childTask TaskID
		Eventually(done).Should(Receive(&childTask))
		Expect(childTask).To(Equal(parentTask))
	})

	g.It("should release the child context after fn returns", func() {
		ctx := NewTask(nil, "spawner", LevelInfo, true)
		ctx.SetCurrent()
		ctx.Release()

		done := make(chan bool)
		Go(func() {
			close(done)
		})
		Eventually(done).Should(BeClosed())

		// Once the goroutine's child reference is gone, popping back to
		// the previous root lets the task finish.
		Reset("go test")
		Eventually(logger.DrainLogs).Should(
			ContainSubstring("Finished task `spawner`"))
	})
})
