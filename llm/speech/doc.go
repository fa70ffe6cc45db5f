/*
包 speech 提供语音识别 (STT) 接入层与 Cartesia 声音克隆客户端。

# 概述

STT 能力抽象为 STTProvider 接口，屏蔽不同服务商在音频格式、鉴权方式
和响应结构上的差异。声音克隆只对接 Cartesia，由 CartesiaClient 完成
"音频片段 → 声音嵌入 → 声音 ID" 两步调用。

# 核心类型

  - STTProvider：Transcribe、TranscribeFile 与 SupportedFormats。
  - OpenAISTTProvider：Whisper /v1/audio/transcriptions，multipart 上传。
  - DeepgramProvider：/v1/listen，原始音频请求体。
  - GoogleSTTProvider：Cloud Speech v1 同步 Recognize，凭据来自 ADC。
  - CartesiaClient：CloneVoice (/voices/clone/clip) 与 CreateVoice (/voices)。

# 错误约定

上游非 2xx 返回 *types.Error，HTTPStatus 为上游状态码，Details 为上游响应体；
传输与解码失败统一为 500。成功响应严格解码，缺少嵌入或 ID 时直接报错。
*/
package speech
