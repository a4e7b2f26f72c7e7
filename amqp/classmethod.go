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

package amqp

// Class ids, per AMQP 0-9-1 chapter 4.
const (
	classConnection = 10
	classChannel    = 20
	classExchange   = 40
	classQueue      = 50
	classBasic      = 60
	classTx         = 90
)

// Method ids within classConnection.
const (
	methodConnectionStart    = 10
	methodConnectionStartOk  = 11
	methodConnectionSecure   = 20
	methodConnectionSecureOk = 21
	methodConnectionTune     = 30
	methodConnectionTuneOk   = 31
	methodConnectionOpen     = 40
	methodConnectionOpenOk   = 41
	methodConnectionClose    = 50
	methodConnectionCloseOk  = 51
)

// Method ids within classChannel.
const (
	methodChannelOpen    = 10
	methodChannelOpenOk  = 11
	methodChannelFlow    = 20
	methodChannelFlowOk  = 21
	methodChannelClose   = 40
	methodChannelCloseOk = 41
)

// Method ids within classExchange.
const (
	methodExchangeDeclare   = 10
	methodExchangeDeclareOk = 11
	methodExchangeDelete    = 20
	methodExchangeDeleteOk  = 21
)

// Method ids within classQueue.
const (
	methodQueueDeclare   = 10
	methodQueueDeclareOk = 11
	methodQueueBind      = 20
	methodQueueBindOk    = 21
	methodQueueUnbind    = 50
	methodQueueUnbindOk  = 51
	methodQueuePurge     = 30
	methodQueuePurgeOk   = 31
	methodQueueDelete    = 40
	methodQueueDeleteOk  = 41
)

// Method ids within classBasic. The connection routes no Basic method
// through FrameRouter. decodeBasicMethod decodes QosOk, ConsumeOk,
// CancelOk, Return, Deliver, GetOk, GetEmpty, Nack and RecoverOk; a
// broker-sent Basic.Ack or Basic.Cancel has no decoder and fails with
// errUnknownClassMethod.
const (
	methodBasicQos          = 10
	methodBasicQosOk        = 11
	methodBasicConsume      = 20
	methodBasicConsumeOk    = 21
	methodBasicCancel       = 30
	methodBasicCancelOk     = 31
	methodBasicPublish      = 40
	methodBasicReturn       = 50
	methodBasicDeliver      = 60
	methodBasicGet          = 70
	methodBasicGetOk        = 71
	methodBasicGetEmpty     = 72
	methodBasicAck          = 80
	methodBasicReject       = 90
	methodBasicRecoverAsync = 100
	methodBasicRecover      = 110
	methodBasicRecoverOk    = 111
	methodBasicNack         = 120
)

// classNames renders a class id for logging and error text.
var classNames = map[uint16]string{
	classConnection: "connection",
	classChannel:    "channel",
	classExchange:   "exchange",
	classQueue:      "queue",
	classBasic:      "basic",
	classTx:         "tx",
}

func classMethodName(classID, methodID uint16) string {
	name, ok := classNames[classID]
	if !ok {
		name = "unknown"
	}
	return name
}

// decodeMethodArgs looks up classID/methodID in the catalog and decodes
// the method's argument struct from body. Decoders exist for the methods
// a broker sends and for Connection StartOk, TuneOk and Open; any other
// class/method pair, including the remaining client-to-server methods,
// returns errUnknownClassMethod.
func decodeMethodArgs(classID, methodID uint16, body []byte) (any, error) {
	switch classID {
	case classConnection:
		return decodeConnectionMethod(methodID, body)
	case classChannel:
		return decodeChannelMethod(methodID, body)
	case classExchange:
		return decodeExchangeMethod(methodID, body)
	case classQueue:
		return decodeQueueMethod(methodID, body)
	case classBasic:
		return decodeBasicMethod(methodID, body)
	default:
		return nil, errUnknownClassMethod(classID, methodID)
	}
}
