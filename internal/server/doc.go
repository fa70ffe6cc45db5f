// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

/*
Package server 提供 HTTP 服务器生命周期管理，支持非阻塞启动、
优雅关闭与系统信号监听。

# 核心类型

  - Manager：封装 net/http.Server 与 net.Listener，提供
    Start/Shutdown/WaitForShutdown 生命周期方法，以及异步错误通道。
  - Config：组件名、监听地址、读写超时、空闲超时、最大请求头大小
    与优雅关闭超时。

# 使用

DearVoice 进程内运行两个 Manager：对外 API 服务（默认 :5000）
与 Prometheus metrics 服务。Addr 在启动后返回实际绑定地址，
便于以 ":0" 监听的测试获取随机端口。
*/
package server
