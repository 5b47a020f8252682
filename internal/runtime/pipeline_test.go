package runtime_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kinetic-lang/kinetic/internal/runtime"
)

const gravityPair = `
particle a at (0.0, 0.0) mass 1.0
particle b at (5.0, 0.0) mass 1.0
force gravity(a, b) G = 1.0
detect gap = distance(a, b)
simulate dt = 0.01 steps = 100
`

// A scene touching every stage: lets, a function expanded twice over
// string particle names, a scripted loop, and a well.
const fullScene = `
let g = 0.8
let spacing = 2.0

particle p0 at (0.0, 0.0) mass 1.0
particle p1 at (spacing, 0.0) mass 2.0
particle p2 at (10.0, 0.0) mass 1.0
particle p3 at (10.0 + spacing, 0.0) mass 2.0

fn link(left, right) {
	force spring(left, right) k = 3.0 rest = spacing
}

link("p0", "p1")
link("p2", "p3")
force gravity(p1, p2) G = g

loop for 2 cycles with frequency 4.0 damping 0.0 on p0 {
	force push(p0) magnitude 0.3 direction (1.0, 0.0)
}

well trap on p3 if position(p3).x >= 11.5 depth 5.0

detect left = distance(p0, p1)
detect right = distance(p2, p3)
detect edge = position(p3)
simulate dt = 0.01 steps = 400
`

func mustRun(source string) map[string]float64 {
	res, err := runtime.Run(context.Background(), source)
	Expect(err).NotTo(HaveOccurred())
	out := make(map[string]float64, len(res.Detectors))
	for _, d := range res.Detectors {
		out[d.Name] = d.Value
	}
	return out
}

var _ = Describe("Batch pipeline", func() {
	It("is deterministic across repeated runs", func() {
		first := mustRun(fullScene)
		second := mustRun(fullScene)
		Expect(second).To(HaveLen(len(first)))
		for name, v := range first {
			Expect(second[name]).To(BeNumerically("~", v, 1e-12), name)
		}
	})

	It("pulls gravitating particles strictly closer", func() {
		out := mustRun(gravityPair)
		Expect(out["gap"]).To(BeNumerically(">", 0.0))
		Expect(out["gap"]).To(BeNumerically("<", 5.0))
	})

	It("keeps a spring pair oscillating about its rest length", func() {
		out := mustRun(`
particle a at (0.0, 0.0) mass 1.0
particle b at (3.0, 0.0) mass 1.0
force spring(a, b) k = 2.0 rest = 2.0
detect gap = distance(a, b)
simulate dt = 0.01 steps = 500
`)
		Expect(out["gap"]).To(BeNumerically("~", 2.0, 1.5))
	})

	It("stops a while-loop push near its threshold", func() {
		out := mustRun(`
particle a at (0.0, 0.0) mass 1.0
loop while position(a).x < 3.0 with frequency 5.0 damping 0.0 on a {
	force push(a) magnitude 0.5 direction (1.0, 0.0)
}
detect a_x = position(a)
simulate dt = 0.01 steps = 175
`)
		Expect(out["a_x"]).To(BeNumerically(">=", 2.5))
		Expect(out["a_x"]).To(BeNumerically("<=", 4.0))
	})

	It("expands functions before the physics sees the scene", func() {
		out := mustRun(fullScene)
		Expect(out).To(HaveKey("left"))
		Expect(out).To(HaveKey("right"))
		Expect(out).To(HaveKey("edge"))
	})
})

var _ = Describe("Broken inputs", func() {
	It("rejects an unknown particle at analysis, not at parse", func() {
		source := `
particle a at (0.0, 0.0) mass 1.0
force gravity(a, b) G = 1.0
simulate dt = 0.01 steps = 10
`
		_, diags, err := runtime.BuildContext(source)
		Expect(err).To(MatchError(runtime.ErrAnalysis))
		Expect(diags.HasErrors()).To(BeTrue())
		Expect(diags.Errors()[0].Message).To(ContainSubstring("b"))

		_, err = runtime.Run(context.Background(), source)
		Expect(err).To(HaveOccurred())
	})

	It("treats a missing simulate block as a parse error", func() {
		_, _, err := runtime.BuildContext(`particle a at (0.0, 0.0) mass 1.0`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("simulate"))
	})

	It("treats a malformed loop header as a parse error", func() {
		_, _, err := runtime.BuildContext(`
particle a at (0.0, 0.0) mass 1.0
loop for banana cycles with on a {
}
simulate dt = 0.01 steps = 10
`)
		Expect(err).To(HaveOccurred())
	})

	It("rejects two wildcard match arms statically", func() {
		_, _, err := runtime.BuildContext(`
particle a at (0.0, 0.0) mass 1.0
match 1 {
	_ => {
	}
	_ => {
	}
}
simulate dt = 0.01 steps = 10
`)
		Expect(err).To(MatchError(runtime.ErrAnalysis))
	})

	It("rejects a fractional step count at build time", func() {
		_, _, err := runtime.BuildContext(`
particle a at (0.0, 0.0) mass 1.0
simulate dt = 0.01 steps = 2.5
`)
		Expect(err).To(MatchError(runtime.ErrBadStepCount))
	})
})
