package extract

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/walteh/gocssmods/pkg/position"
	"gitlab.com/tozd/go/errors"
)

const (
	cssNodeClassSelector = "class_selector"
	cssNodeClassName     = "class_name"
)

// TreeSitterExtractor parses the stylesheet with the tree-sitter CSS grammar and reports
// the class_name of every class_selector node, so declaration values never match.
type TreeSitterExtractor struct{}

func NewTreeSitterExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{}
}

func (me *TreeSitterExtractor) Extract(ctx context.Context, text string) (position.RawPositionArray, error) {
	content := []byte(text)

	parser := sitter.NewParser()
	parser.SetLanguage(css.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, errors.Errorf("parsing stylesheet: %w", err)
	}
	defer tree.Close()

	occurrences := make(position.RawPositionArray, 0)
	collectClassNames(tree.RootNode(), content, &occurrences)
	return occurrences, nil
}

func collectClassNames(node *sitter.Node, content []byte, out *position.RawPositionArray) {
	if node == nil {
		return
	}

	if node.Type() == cssNodeClassName {
		if parent := node.Parent(); parent != nil && parent.Type() == cssNodeClassSelector {
			*out = append(*out, position.NewBasicPosition(string(content[node.StartByte():node.EndByte()]), int(node.StartByte())))
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectClassNames(node.Child(i), content, out)
	}
}
