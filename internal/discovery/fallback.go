package discovery

import (
	"fmt"
	"os"

	"github.com/scoutlabs/brandscout/internal/models"
	"gopkg.in/yaml.v3"
)

// FallbackLists maps platform -> niche -> curated creator handles. Used when
// live discovery errors out or returns too few qualifying profiles.
type FallbackLists map[models.Platform]map[string][]string

// Handles returns the curated list for a niche key, or nil when unmapped.
func (l FallbackLists) Handles(platform models.Platform, nicheKey string) []string {
	niches, ok := l[platform]
	if !ok {
		return nil
	}
	return niches[nicheKey]
}

// DefaultFallbackLists returns the built-in curated creator lists.
func DefaultFallbackLists() FallbackLists {
	return FallbackLists{
		models.PlatformInstagram: {
			"fitness": {
				"kayla_itsines", "whitneyysimmons", "alexia_clark", "massy.arias",
				"brittne_babe", "sumeet_sahni", "jenselter", "anllela_sagra",
				"michelle_lewin", "sommer_ray", "bakharnabieva", "niamhcoghlan_",
			},
			"beauty": {
				"hudabeauty", "nikkietutorials", "jamescharles", "jeffreestar",
				"jackieaina", "patrickstarrr", "bretmanrock", "makeupbyjakejamie",
			},
			"fashion": {
				"chiaraferragni", "negin_mirsalehi", "aimesong", "songofstyle",
				"camilacoelho", "weworewhat", "sincerelyjules", "blaireadiebee",
			},
			"food": {
				"halfbakedharvest", "minimalistbaker", "thefeedfeed", "foodnetwork",
				"bonappetitmag", "tasty", "buzzfeedtasty", "delish",
			},
			"travel": {
				"beautifuldestinations", "earthpix", "wonderful_places", "passionpassport",
				"natgeotravel", "lonelyplanet", "travelchannel", "wanderlust",
			},
			"tech": {
				"mkbhd", "ijustine", "unboxtherapy", "techcrunch",
				"theverge", "cnet", "wired", "engadget",
			},
		},
		models.PlatformTikTok: {
			"fitness": {
				"kayla_itsines", "chloe_t", "pamela_rf", "daisy_keech",
				"madfit", "growingannanas", "keltie_oconnor", "caroline_girvan",
				"natacha.oceane", "blogilates", "whitney_simmons", "heather_robertson",
			},
			"beauty": {
				"mikayla", "charlidamelio", "addisonre", "bretmanrock",
				"abbyroberts", "hyram", "mariaa.ojeda", "meredithdietz",
			},
			"fashion": {
				"alix_earle", "emmawest", "styled.byliv", "oldloserinbrooklyn",
				"tinxsnacks", "overheardla", "thecottagefairy", "emmahill",
			},
			"food": {
				"cookingwithshereen", "logan.moffitt", "jennaaraee", "feelgoodfoodie",
				"cooking_with_lynja", "emmastep", "tastesbetterfromscratch", "eatwithzoee",
			},
			"travel": {
				"drewbinsky", "migrationology", "kylenutt", "charlesdeclare",
				"thecottagefairy", "earthpix", "wonderofscience", "voyaged",
			},
			"tech": {
				"marques_brownlee", "iammarkian", "jerryrigeverything", "mrwhosetheboss",
				"linustech", "techgirl", "techlinked", "techburner",
			},
		},
		models.PlatformYouTube: {
			"fitness": {
				"athleanx", "FitnessBlender", "ChloeTing", "PamelaReif",
				"MadFit", "GrowWithJo", "Blogilates", "SydneyCummings",
				"HeatherRobertson", "CarolineGirvan", "JeffNippard", "WillTennyson",
			},
			"beauty": {
				"jamescharles", "NikkieTutorials", "MannyMua733", "PatrickStarrr",
				"jeffreestar", "jaclynnhill", "TatiBeauty", "MichellePhan",
			},
			"tech": {
				"mkbhd", "LinusTechTips", "UnboxTherapy", "MrWhoseTheBoss",
				"Dave2D", "TechLinked", "JerryRigEverything", "iJustine",
			},
			"food": {
				"bingingwithbabish", "joshuaweissman", "adamragusea", "NotAnotherCookingShow",
				"aragusea", "SortedFood", "ChefJohnFoodWishes", "EmmymadeinJapan",
			},
			"travel": {
				"MarkWiens", "DrewBinsky", "LostLeBlanc", "KaraAndNate",
				"VagabrothersTravelGuide", "SamuelAndAudrey", "TheInfographicsShow",
			},
			"gaming": {
				"PewDiePie", "MrBeast", "Markiplier", "jacksepticeye",
				"Ninja", "Tfue", "Pokimane", "Valkyrae",
			},
		},
	}
}

// LoadFallbackLists reads curated lists from a YAML file and merges them over
// the defaults. Niches present in the file replace the built-in list for that
// platform/niche; everything else keeps its default.
func LoadFallbackLists(path string) (FallbackLists, error) {
	lists := DefaultFallbackLists()
	if path == "" {
		return lists, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback creators file: %w", err)
	}

	var overrides map[string]map[string][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse fallback creators file: %w", err)
	}

	for platform, niches := range overrides {
		p := models.Platform(platform)
		if !p.Valid() {
			return nil, fmt.Errorf("unknown platform %q in fallback creators file", platform)
		}
		if lists[p] == nil {
			lists[p] = make(map[string][]string)
		}
		for niche, handles := range niches {
			lists[p][niche] = handles
		}
	}

	return lists, nil
}
