package extractor

import "strings"

// degreeKeywords 学位关键词，按长词优先排列
var degreeKeywords = []string{
	"Higher Secondary Education",
	"Secondary Education",
	"Postgraduate Diploma",
	"B.Tech", "M.Tech", "B.Sc", "M.Sc", "B.S.", "M.S.", "B.A.", "M.A.",
	"BSc", "MSc", "MBA", "BBA", "Ph.D", "PhD",
	"Bachelor", "Master", "Doctorate", "Diploma", "Associate",
}

// institutionKeywords 教育机构关键词
var institutionKeywords = []string{
	"University", "College", "Institute", "School", "Academy", "Polytechnic",
}

// companySuffixes 公司名称的常见后缀
var companySuffixes = []string{
	"Inc", "Inc.", "Corp", "Corp.", "Corporation", "LLC", "Ltd", "Ltd.", "Limited",
	"GmbH", "Co.", "Technologies", "Technology", "Labs", "Systems", "Solutions",
	"Software", "Consulting", "Group",
}

// skillLexicon 技能词表：小写词 → 规范写法
// 命中词表的技能拿到更高置信度和统一的大小写
var skillLexicon = map[string]string{
	"go":         "Go",
	"golang":     "Go",
	"python":     "Python",
	"java":       "Java",
	"javascript": "JavaScript",
	"typescript": "TypeScript",
	"c++":        "C++",
	"c#":         "C#",
	"rust":       "Rust",
	"sql":        "SQL",
	"mysql":      "MySQL",
	"postgresql": "PostgreSQL",
	"postgres":   "PostgreSQL",
	"redis":      "Redis",
	"mongodb":    "MongoDB",
	"kafka":      "Kafka",
	"rabbitmq":   "RabbitMQ",
	"docker":     "Docker",
	"kubernetes": "Kubernetes",
	"k8s":        "Kubernetes",
	"aws":        "AWS",
	"gcp":        "GCP",
	"azure":      "Azure",
	"linux":      "Linux",
	"git":        "Git",
	"react":      "React",
	"vue":        "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"html":       "HTML",
	"css":        "CSS",
	"grpc":       "gRPC",
	"graphql":    "GraphQL",
	"terraform":  "Terraform",
	"ansible":    "Ansible",
	"spark":      "Spark",
	"hadoop":     "Hadoop",
	"tensorflow": "TensorFlow",
	"pytorch":    "PyTorch",
	"nlp":        "NLP",
	"machine learning": "Machine Learning",
	"deep learning":    "Deep Learning",
}

// canonicalSkill 查词表返回规范写法，未命中返回原词和false
func canonicalSkill(term string) (string, bool) {
	canonical, ok := skillLexicon[strings.ToLower(strings.TrimSpace(term))]
	if !ok {
		return strings.TrimSpace(term), false
	}
	return canonical, true
}

// containsKeyword 大小写不敏感地检查文本是否包含任一关键词，返回命中的关键词
func containsKeyword(text string, keywords []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
