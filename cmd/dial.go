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

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/packetd/amqpc/amqp"
	"github.com/packetd/amqpc/common"
	"github.com/packetd/amqpc/confengine"
	"github.com/packetd/amqpc/internal/sigs"
	"github.com/packetd/amqpc/logger"
)

// dialConfig mirrors amqp.DialOptions's scalar fields for file-based
// configuration (config tags, unpacked via confengine's go-ucfg wrapper).
type dialConfig struct {
	Host        string   `config:"host"`
	Port        int      `config:"port"`
	VirtualHost string   `config:"vhost"`
	Username    string   `config:"username"`
	Password    string   `config:"password"`
	Mechanisms  []string `config:"mechanisms"`
	Heartbeat   int      `config:"heartbeat"`
	ChannelMax  int      `config:"channelMax"`
	FrameMax    int      `config:"frameMax"`
}

var (
	dialConfigPath string
	dialHost       string
	dialPort       int
	dialVHost      string
	dialUser       string
	dialPass       string
	dialHeartbeat  int
	dialTimeout    time.Duration
	dialProps      []string
)

var dialCmd = &cobra.Command{
	Use:   "dial",
	Short: "open an AMQP connection, log its id and state, and hold it open until interrupted",
	RunE:  runDial,
}

func init() {
	dialCmd.Flags().StringVar(&dialConfigPath, "config", "", "yaml config file, overrides flags below when set")
	dialCmd.Flags().StringVar(&dialHost, "host", "127.0.0.1", "broker host")
	dialCmd.Flags().IntVar(&dialPort, "port", 0, "broker port (0 picks 5671/5672)")
	dialCmd.Flags().StringVar(&dialVHost, "vhost", "/", "virtual host")
	dialCmd.Flags().StringVar(&dialUser, "user", "guest", "username")
	dialCmd.Flags().StringVar(&dialPass, "pass", "guest", "password")
	dialCmd.Flags().IntVar(&dialHeartbeat, "heartbeat", 60, "heartbeat interval in seconds, 0 to disable")
	dialCmd.Flags().DurationVar(&dialTimeout, "timeout", 10*time.Second, "handshake timeout")
	dialCmd.Flags().StringArrayVar(&dialProps, "prop", nil, "extra client property as key=value, repeatable")
}

func runDial(cmd *cobra.Command, args []string) error {
	opts, err := buildDialOptions()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := amqp.Dial(ctx, opts)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	logger.Infof("amqpctl: connection %s open, state=%s", conn.ID, conn.State())

	sig := sigs.Terminate()
	<-sig
	logger.Infof("amqpctl: signal received, closing connection %s", conn.ID)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	return conn.Close(closeCtx)
}

func buildDialOptions() (amqp.DialOptions, error) {
	opts := amqp.DefaultDialOptions()

	if dialConfigPath != "" {
		cfg, err := confengine.LoadConfigPath(dialConfigPath)
		if err != nil {
			return opts, err
		}
		var dc dialConfig
		if err := cfg.Unpack(&dc); err != nil {
			return opts, err
		}
		opts.Host = dc.Host
		opts.Port = dc.Port
		opts.VirtualHost = dc.VirtualHost
		opts.Username = dc.Username
		opts.Password = dc.Password
		if len(dc.Mechanisms) > 0 {
			opts.Mechanisms = dc.Mechanisms
		}
		opts.Heartbeat = uint16(dc.Heartbeat)
		opts.ChannelMax = uint16(dc.ChannelMax)
		opts.FrameMax = uint32(dc.FrameMax)
	} else {
		opts.Host = dialHost
		opts.Port = dialPort
		opts.VirtualHost = dialVHost
		opts.Username = dialUser
		opts.Password = dialPass
		opts.Heartbeat = uint16(dialHeartbeat)
	}

	props, err := parseProps(dialProps)
	if err != nil {
		return opts, err
	}
	opts.ClientProperties = props
	return opts, nil
}

// parseProps turns "key=value" flag repeats into a common.Options map,
// decoding each raw string into the most specific scalar type it parses
// as (bool, int, then string) via cast, then re-homogenizing through
// mapstructure so a config-file caller and a flag caller end up with the
// same shape.
func parseProps(raw []string) (common.Options, error) {
	flat := make(map[string]any, len(raw))
	for _, kv := range raw {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --prop %q, want key=value", kv)
		}
		flat[parts[0]] = coerceScalar(parts[1])
	}

	opts := common.NewOptions()
	if err := mapstructure.Decode(flat, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func coerceScalar(s string) any {
	if b, err := cast.ToBoolE(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if n, err := cast.ToInt64E(s); err == nil {
		return n
	}
	return s
}
