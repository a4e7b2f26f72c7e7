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

package common

const (
	// App 应用程序名称
	App = "amqpc"

	// Version 应用程序版本
	Version = "v0.0.1"

	// DefaultFrameMax 客户端在协商前建议的 frame_max 初始值
	//
	// 0 表示"接受服务端提出的值"，由 amqp.NegotiateNumeric 决定最终值
	DefaultFrameMax = 0

	// DefaultChannelMax 客户端在协商前建议的 channel_max 初始值，含义同上
	DefaultChannelMax = 0
)
