package lsp

import "go.lsp.dev/protocol"

// ClientCapabilities returns the static capability payload advertised in
// the initialize handshake: text-document sync, publish diagnostics with
// related information, markdown hover, snippet completion, hierarchical
// document symbols, and workspace folder support.
func ClientCapabilities() protocol.ClientCapabilities {
	trueVal := true

	return protocol.ClientCapabilities{
		Workspace: &protocol.WorkspaceClientCapabilities{
			ApplyEdit: true,
			WorkspaceEdit: &protocol.WorkspaceClientCapabilitiesWorkspaceEdit{
				DocumentChanges: true,
			},
			WorkspaceFolders: true,
			Configuration:    true,
			Symbol: &protocol.WorkspaceClientCapabilitiesSymbol{
				SymbolKind: &protocol.WorkspaceClientCapabilitiesSymbolKind{
					ValueSet: allSymbolKinds(),
				},
			},
		},
		TextDocument: &protocol.TextDocumentClientCapabilities{
			Synchronization: &protocol.TextDocumentSyncClientCapabilities{
				DidSave: true,
			},
			PublishDiagnostics: &protocol.PublishDiagnosticsClientCapabilities{
				RelatedInformation: true,
			},
			Hover: &protocol.HoverTextDocumentClientCapabilities{
				ContentFormat: []protocol.MarkupKind{protocol.Markdown, protocol.PlainText},
			},
			Completion: &protocol.CompletionTextDocumentClientCapabilities{
				CompletionItem: &protocol.CompletionTextDocumentClientCapabilitiesItem{
					SnippetSupport:          true,
					DocumentationFormat:     []protocol.MarkupKind{protocol.Markdown, protocol.PlainText},
					PreselectSupport:        true,
					DeprecatedSupport:       true,
				},
			},
			SignatureHelp: &protocol.SignatureHelpTextDocumentClientCapabilities{
				SignatureInformation: &protocol.TextDocumentClientCapabilitiesSignatureInformation{
					DocumentationFormat: []protocol.MarkupKind{protocol.Markdown, protocol.PlainText},
				},
			},
			DocumentSymbol: &protocol.DocumentSymbolClientCapabilities{
				HierarchicalDocumentSymbolSupport: true,
				SymbolKind: &protocol.WorkspaceClientCapabilitiesSymbolKind{
					ValueSet: allSymbolKinds(),
				},
			},
			Definition: &protocol.DefinitionTextDocumentClientCapabilities{
				LinkSupport: true,
			},
			References: &protocol.ReferencesTextDocumentClientCapabilities{},
			Rename: &protocol.RenameClientCapabilities{
				PrepareSupport: true,
			},
			CodeAction: &protocol.CodeActionClientCapabilities{
				CodeActionLiteralSupport: &protocol.CodeActionClientCapabilitiesLiteralSupport{
					CodeActionKind: protocol.CodeActionClientCapabilitiesKind{
						ValueSet: []protocol.CodeActionKind{
							protocol.QuickFix, protocol.Refactor, protocol.RefactorExtract,
							protocol.RefactorInline, protocol.RefactorRewrite, protocol.Source,
							protocol.SourceOrganizeImports,
						},
					},
				},
			},
			Formatting: &protocol.DocumentFormattingClientCapabilities{},
		},
		Window: &protocol.WindowClientCapabilities{
			WorkDoneProgress: trueVal,
		},
	}
}

func allSymbolKinds() []protocol.SymbolKind {
	return []protocol.SymbolKind{
		protocol.SymbolKindFile, protocol.SymbolKindModule, protocol.SymbolKindNamespace,
		protocol.SymbolKindPackage, protocol.SymbolKindClass, protocol.SymbolKindMethod,
		protocol.SymbolKindProperty, protocol.SymbolKindField, protocol.SymbolKindConstructor,
		protocol.SymbolKindEnum, protocol.SymbolKindInterface, protocol.SymbolKindFunction,
		protocol.SymbolKindVariable, protocol.SymbolKindConstant, protocol.SymbolKindString,
		protocol.SymbolKindNumber, protocol.SymbolKindBoolean, protocol.SymbolKindArray,
		protocol.SymbolKindObject, protocol.SymbolKindKey, protocol.SymbolKindNull,
		protocol.SymbolKindEnumMember, protocol.SymbolKindStruct, protocol.SymbolKindEvent,
		protocol.SymbolKindOperator, protocol.SymbolKindTypeParameter,
	}
}
