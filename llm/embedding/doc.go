/*
包 embedding 提供文本嵌入（Embedding）接口与 OpenAI 实现，
用于把患者记忆分块转换为向量以便后续检索。

# 核心接口

  - Provider：统一嵌入接口，定义 Embed、EmbedQuery、EmbedDocuments 等方法。
  - EmbeddingRequest / EmbeddingResponse：标准化的请求与响应模型。
  - BaseProvider：公共基类，封装 HTTP 请求与上游错误映射。

# 使用方式

	cfg := embedding.DefaultOpenAIConfig()
	cfg.APIKey = "sk-..."
	provider := embedding.NewOpenAIProvider(cfg)

	vec, err := provider.EmbedQuery(ctx, "她最喜欢在花园里种番茄")
*/
package embedding
