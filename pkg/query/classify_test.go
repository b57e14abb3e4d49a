package query

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		want     Intent
	}{
		{"什么是PCA？", Intent{Kind: IntentDefinition, Subject: "PCA"}},
		{"什么是主成分分析", Intent{Kind: IntentDefinition, Subject: "主成分分析"}},
		{"支持向量机是什么？", Intent{Kind: IntentDefinition, Subject: "支持向量机"}},
		{"  什么是 K均值 ?  ", Intent{Kind: IntentDefinition, Subject: "K均值"}},
		{"What is PCA?", Intent{Kind: IntentDefinition, Subject: "PCA"}},
		{"what's a neural network", Intent{Kind: IntentDefinition, Subject: "a neural network"}},
		{"PCA和LDA的关系", Intent{Kind: IntentRelation, Subject: "PCA", Object: "LDA"}},
		{"PCA和LDA有什么关系？", Intent{Kind: IntentRelation, Subject: "PCA", Object: "LDA"}},
		{"K均值和层次聚类的关系？", Intent{Kind: IntentRelation, Subject: "K均值", Object: "层次聚类"}},
		{"PCA和LDA之间有什么关系", Intent{Kind: IntentRelation, Subject: "PCA", Object: "LDA"}},
		{"What is the relation between PCA and LDA?", Intent{Kind: IntentRelation, Subject: "PCA", Object: "LDA"}},
		{"PCA and LDA relationship", Intent{Kind: IntentRelation, Subject: "PCA", Object: "LDA"}},
		{"什么是？", Intent{Kind: IntentUnknown}},
		{"和LDA的关系", Intent{Kind: IntentUnknown}},
		{"PCA和LDA", Intent{Kind: IntentUnknown}},
		{"如何安装Python", Intent{Kind: IntentUnknown}},
		{"", Intent{Kind: IntentUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			if got := Classify(tt.question); got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.question, got, tt.want)
			}
		})
	}
}

func TestIndexFold(t *testing.T) {
	if got := indexFold("PCA AND LDA", " and "); got != 3 {
		t.Errorf("indexFold = %d, want 3", got)
	}
	if got := indexFold("PCA和LDA", " and "); got != -1 {
		t.Errorf("indexFold = %d, want -1", got)
	}
	if got := lastIndexFold("between a Between b", "between "); got != 10 {
		t.Errorf("lastIndexFold = %d, want 10", got)
	}
}
