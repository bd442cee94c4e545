package main

import (
	"fmt"
	"io"
	"time"

	"ovie/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	if timings.Has(buildpipeline.StageLoad) {
		fmt.Fprintf(out, "loaded %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageLoad)))
	}
	for _, st := range []buildpipeline.Stage{
		buildpipeline.StageValidateAST,
		buildpipeline.StageValidateHIR,
		buildpipeline.StageValidateMIR,
		buildpipeline.StageValidateBackend,
	} {
		if timings.Has(st) {
			fmt.Fprintf(out, "%s %.1f ms\n", st, toMillis(timings.Duration(st)))
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
