/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖焦点仲裁与语音
合成播放两大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
便于 Grafana 等工具进行可视化与告警。Collector 直接实现
focus.MetricsRecorder 与 speechsynthesizer.MetricsRecorder，调用方
无需额外适配层。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram 等 Prometheus
    向量指标，按业务域分组管理。

# 主要能力

  - 焦点仲裁指标：成功获取、被抢占、释放次数，按 channel 分组。
  - 语音播放指标：开始、完成、失败次数，以及播放时长分布。
*/
package metrics
