package entities

import (
	gitforgeEntities "github.com/rios0rios0/gitforge/pkg/global/domain/entities"
)

// DefaultBranchName is used when a hosting provider reports no default branch.
const DefaultBranchName = "main"

// Repository is re-exported from gitforge.
type Repository = gitforgeEntities.Repository

// File is re-exported from gitforge. Directory-like entries carry IsDir.
type File = gitforgeEntities.File

// RepositoryFullName returns the namespace-qualified display name of a repository.
func RepositoryFullName(repo Repository) string {
	if repo.Organization == "" {
		return repo.Name
	}
	return repo.Organization + "/" + repo.Name
}

// RepositoryBranch returns the branch a scan should start from.
func RepositoryBranch(repo Repository) string {
	if repo.DefaultBranch == "" {
		return DefaultBranchName
	}
	return repo.DefaultBranch
}
