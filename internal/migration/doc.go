// Copyright (c) DearVoice Authors.
// Licensed under the MIT License.

/*
包 migration 管理记忆分块表 memory_chunks 的 Schema 迁移，
支持 PostgreSQL、MySQL（含 SingleStore 等兼容协议）与 SQLite，基于 golang-migrate 实现。

# 概述

各方言的 SQL 文件通过 embed.FS 内嵌，版本序列在三种方言间保持一致。
SQLite 使用纯 Go 的 modernc 驱动，无需 CGO。

# 核心类型

  - Migrator / DefaultMigrator：Up/Down/DownAll/Steps/Goto/Force/Version/Status/Info。
  - Config：数据库类型、连接串、迁移表名与锁超时。
  - CLI：dearvoice migrate 子命令的终端输出。

# 创建方式

  - NewMigratorFromDatabaseConfig：从应用配置创建，serve 在 auto_migrate 开启时使用。
  - NewMigratorFromURL：显式指定类型与连接串。
*/
package migration
