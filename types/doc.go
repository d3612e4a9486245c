// Copyright (c) imgflow Authors.
// Licensed under the MIT License.

/*
Package types 提供 imgflow 的全局共享类型定义。

# 概述

types 是库最底层的公共包，不依赖任何内部包，为 generate、upload、
notify 等上层模块提供统一的类型契约。跨包共享的结构体与错误码均定义
于此，以避免循环依赖。

# 核心类型

  - Error / ErrorCode   — 结构化错误体系，含 HTTP 状态码、Retryable、API 标记
  - GenerationResult    — 一次成功生成的完整结果（图片、尺寸、图床 URL、归属）
  - NotificationEvent   — 发往通知渠道的结构化事件

# 错误分类约定

  - 网络故障（DNS、连接、读超时）     → Retryable = true
  - HTTP 5xx 上游故障                 → Retryable = true
  - HTTP 4xx 业务拒绝（配额、鉴权等） → Retryable = false，立即切换候选
  - 上传/通知失败                     → 不影响生成结果本身
*/
package types
