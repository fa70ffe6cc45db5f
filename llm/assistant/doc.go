/*
包 assistant 封装 Vapi 对话助手接口：创建、读取助手以及发起、结束对话。

请求与响应均为显式类型；Template 统一生成助手负载中的模型、转写器
与通话固定参数（录音、HIPAA、消息订阅、静音超时、背景音等）。
*/
package assistant
