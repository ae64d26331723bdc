package siteprofile

import (
	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/optimizer"
)

const (
	DefaultAuthorName   = "Admin User"
	DefaultAuthorAvatar = "https://picsum.photos/seed/author-avatar/100/100"
)

// Profile describes the site: who writes it and what the optimizer should
// assume when the admin leaves fields blank.
type Profile struct {
	Title     string           `yaml:"title,omitempty"`
	Author    AuthorProps      `yaml:"author"`
	Optimizer OptimizerDefault `yaml:"optimizer"`
}

type AuthorProps struct {
	Name      string `yaml:"name"`
	AvatarURL string `yaml:"avatarUrl,omitempty"`
}

type OptimizerDefault struct {
	WebsiteType    string   `yaml:"websiteType,omitempty"`
	TargetAudience string   `yaml:"targetAudience,omitempty"`
	ExampleSites   []string `yaml:"exampleSites,omitempty"`
}

// Default is used when no profile file is configured.
func Default() Profile {
	return Profile{
		Title:  "readmehub",
		Author: AuthorProps{Name: DefaultAuthorName, AvatarURL: DefaultAuthorAvatar},
		Optimizer: OptimizerDefault{
			WebsiteType:    "blog",
			TargetAudience: "general readers",
		},
	}
}

// AuthorValue is the byline stamped on every article.
func (p Profile) AuthorValue() domain.Author {
	return domain.Author{Name: p.Author.Name, AvatarURL: p.Author.AvatarURL}
}

// OptimizerDefaults converts the profile's optimizer section.
func (p Profile) OptimizerDefaults() optimizer.Defaults {
	return optimizer.Defaults{
		WebsiteType:    p.Optimizer.WebsiteType,
		TargetAudience: p.Optimizer.TargetAudience,
		ExampleSites:   p.Optimizer.ExampleSites,
	}
}
