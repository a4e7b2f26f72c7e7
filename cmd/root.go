// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd implements amqpctl, a small diagnostic CLI around the
// amqp package: dialing a broker, running the handshake, and holding the
// connection open until interrupted, or reporting whatever went wrong.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/packetd/amqpc/common"
	"github.com/packetd/amqpc/logger"
)

var (
	logStdout bool
	logLevel  string
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "amqpctl",
	Short: "amqpctl drives and inspects AMQP 0-9-1 connections",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetOptions(logger.Options{
			Stdout:   logStdout,
			Level:    logLevel,
			Filename: logFile,
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&logStdout, "log-stdout", true, "log to stdout instead of a file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path, used when --log-stdout=false")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dialCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := common.GetBuildInfo()
		fmt.Printf("%s %s (%s, built %s)\n", common.App, info.Version, info.GitHash, info.Time)
		return nil
	},
}

// Execute runs the root command, exiting the process with status 1 on
// error, matching the teacher's cmd entrypoint shape.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
