// Package tools defines the Tool interface for LLM agents, the handle type stored by the tool hub, and helpers to rename and describe tools.
package tools
