// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

/*
包 cache 提供基于 Redis 的连接管理与分布式锁。

# 概述

Manager 封装 go-redis 客户端，负责连接初始化、后台健康检查与优雅关闭。
在此之上，Locker 以 SET NX PX 加令牌校验的 Lua 脚本实现按键互斥，
用于串行化同一家庭成员的声音开通流程。

# 核心类型

  - Manager：持有 Redis 客户端，提供 TryLock/Unlock/Ping/Close。
  - Locker：带键前缀与 TTL 的锁，TryLock 返回释放函数。
  - Config：地址、密码、连接池与健康检查间隔。

# 错误语义

锁被占用不是错误：TryLock 返回 ok=false。管理器关闭后所有操作返回 ErrClosed。
*/
package cache
