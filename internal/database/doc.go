// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

/*
Package database 打开记忆库的 GORM 连接并管理连接池。

# 概述

Open 根据 config.DatabaseConfig 选择 mysql、postgres 或 sqlite 方言；
驱动为空时返回 ErrNotConfigured，调用方据此关闭记忆功能。
PoolManager 负责连接池参数、就绪探活与后台健康检查，并把
打开/空闲连接数上报到 metrics.Collector。

# 核心类型

  - PoolManager：持有 GORM DB 与底层 sql.DB，提供 DB()、Ping()、Stats()、Close()
  - PoolConfig：连接池参数与健康检查间隔
*/
package database
