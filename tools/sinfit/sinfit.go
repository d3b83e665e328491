// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main fits a sine wave by gradient descent using kernels
// differentiated by the adjoint pass.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgrad/examples/sinfit"
	"github.com/gx-org/kernelgrad/tools/gxflag"
)

var (
	gradientDT   = gxflag.DataType("gradient_dt", dtype.Float32, "data type of the adjoint accumulators")
	steps        = flag.Int("steps", 1000, "number of gradient descent steps")
	learningRate = flag.Float64("learning_rate", 0.01, "size of a gradient descent step")
	reportEvery  = flag.Int("report_every", 100, "number of steps between two reports of the loss")
	target       = gxflag.StringList("target", "amplitude and frequency of the target sine wave")
	verbose      = flag.Bool("verbose", false, "log debug information")
)

func run() error {
	opts := sinfit.DefaultOptions()
	opts.Config.GradientDType = *gradientDT
	opts.LearningRate = *learningRate
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	opts.Config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if len(*target) > 0 {
		vals, err := gxflag.Floats(*target)
		if err != nil {
			return err
		}
		if len(vals) != 2 {
			return errors.Errorf("got %d values for --target but want 2", len(vals))
		}
		opts.Target = sinfit.Params{Amplitude: vals[0], Frequency: vals[1]}
	}
	params, err := sinfit.Run(os.Stdout, opts, *steps, *reportEvery)
	if err != nil {
		return err
	}
	fmt.Printf("amplitude=%.4f frequency=%.4f\n", params.Amplitude, params.Frequency)
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
