package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"imagededup/cli"
	"imagededup/imageprocessor"
	"imagededup/imageprocessor/opencv"
	"imagededup/utils"
)

func main() {
	cmd := cli.NewRootCommand(cli.Dependencies{
		OpenCVLoader: func() imageprocessor.ImageLoader { return opencv.NewLoader() },
	})
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, utils.ErrQuit) {
			os.Exit(0)
		}
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
