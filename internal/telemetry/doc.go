// Package telemetry 初始化 OpenTelemetry SDK，为 DearVoice 提供
// TracerProvider 与 MeterProvider，并为各组件提供统一命名的 Tracer。
// 遥测关闭时使用 noop 实现，不连接任何外部服务。
package telemetry
