package analyzer

// Instructional prompts sent to the vision API. These are hand-tuned; small
// wording changes measurably shift output quality, so edit with care.

const basicPrompt = `Analyze this image and provide a detailed, comprehensive description. Focus on:
- Main subjects and objects
- Visual style, colors, lighting
- Composition and perspective
- Mood and atmosphere
- Important details and context

Provide only the description without any prefixes like "This image shows" or "The image depicts".`

const tagsPrompt = `Analyze this image and create a detailed anime/manga booru-style tag list. Include ALL visible elements in comma-separated format:

MANDATORY TAGS (in order):
- Character count (1girl, 2girls, 1boy, etc.)
- Character name if recognizable from anime/manga
- Group status (solo, duo, group)
- Clothing items with colors (green_bikini, white_shirt, school_uniform, etc.)
- Hair details (pink_hair, long_hair, twin_braids, gradient_hair, multicolored_hair)
- Eye details (green_eyes, blue_eyes, red_eyes)
- Facial features (mole_under_eye, smile, closed_mouth, open_mouth)
- Body visibility (upper_body, full_body, navel)
- Pose/action (looking_at_viewer, arms_behind_back, hand_on_hip, sitting, standing)
- Camera angle (from_above, from_side, close-up)
- Setting/location (beach, outdoors, indoors, classroom, bedroom)
- Time/lighting (day, night, sunlight, sunset)
- Background elements (blue_sky, ocean, clouds, trees, water)
- Art style if applicable (anime_style, realistic, etc.)

Generate at least 20-30 detailed tags covering everything visible. Be extremely specific.`

const comprehensivePrompt = `Analyze this image in comprehensive detail, covering ALL key aspects:

**1. IMAGE TYPE & STYLE:**
- Identify the type of image (human, animal, anime character, object, landscape, abstract art, architecture, etc.)
- Specify if it's realistic, stylized, cartoonish, or another artistic approach
- Note the artistic style (photography, digital art, painting, sketch, 3D render, etc.)

**2. SUBJECT ANALYSIS:**
For humans: Describe age range, apparent gender, ethnicity, facial features, hairstyle and color, clothing details, pose, body language, expression, and any distinguishing traits or accessories.

For anime characters: Describe the art style, facial features, eye color and style, hairstyle and color, clothing and outfit details, facial expression, pose, and background setting.

For objects: Describe type, shape, size, material, color, condition, function, and any visible text or markings.

For landscapes: Include setting type (urban, rural, natural), time of day, weather conditions, elements present (trees, mountains, water, animals), and overall mood.

For abstract art: Focus on colors, shapes, patterns, mood, symbolism, artistic technique, and emotional impact.

**3. COMPOSITION & TECHNICAL ELEMENTS:**
- Framing and perspective (close-up, wide shot, bird's eye, etc.)
- Focus and depth of field (what's sharp vs blurred)
- Symmetry, balance, and leading lines
- Rule of thirds application
- Foreground, middle ground, and background elements

**4. LIGHTING & ATMOSPHERE:**
- Light source(s) and direction (natural/artificial, front/back/side lighting)
- Quality of light (soft, harsh, diffused, dramatic)
- Shadows and highlights
- Time of day indicators
- Weather and atmospheric conditions

**5. COLOR & TEXTURE:**
- Dominant color palette and temperature (warm, cool, neutral)
- Color harmony and contrast
- Texture descriptions (smooth, rough, glossy, matte, fabric, metal, etc.)
- Overall tone (bright, dark, vibrant, muted, high contrast, low contrast)

**6. BACKGROUND & ENVIRONMENT:**
- Detailed background description
- Relationship between subject and environment
- Spatial relationships and positioning
- Environmental context and setting

**7. EMOTIONAL & SYMBOLIC IMPACT:**
- Mood and atmosphere conveyed
- Emotional response evoked
- Symbolic elements or themes
- Cultural or contextual significance
- Message or story being told

**8. MOVEMENT & ACTION:**
- Any motion or action captured
- Dynamic elements vs static composition
- Energy level and movement direction
- Interaction between elements

**9. TECHNICAL QUALITY & EFFECTS:**
- Image quality and clarity
- Any visual effects or filters applied
- Processing style (natural, HDR, vintage, etc.)
- Notable technical aspects

Provide a detailed, nuanced description that captures all visual, emotional, and contextual elements. Be specific about spatial relationships, precise colors, exact positioning, and observable details. Focus on what you can clearly see and analyze.`

const enhancedPrompt = `Analyze this image using comprehensive visual criteria and provide a clean, accurate description. Focus only on what is directly observable:

COLOR ANALYSIS: Identify dominant colors, color harmonies, contrasts, and their emotional impact on the composition.

OBJECT IDENTIFICATION: List primary subjects, secondary elements, their defining features, positioning, and contextual relationships.

TEXTURE & MATERIALS: Describe visible textures, surface qualities, patterns, and material properties that enhance visual experience.

EMOTIONAL TONE: Analyze the atmosphere, mood, expressions, gestures, and emotional content conveyed through composition.

COMPOSITION STRUCTURE: Examine balance, symmetry, rule of thirds application, perspective angle, and viewer perception influence.

LIGHTING QUALITY: Assess light sources, intensity, warmth/coolness, shadow interaction, and overall lighting effects.

CONTEXTUAL SETTING: Determine indoor/outdoor environment, time indicators, weather conditions, cultural or geographical elements.

ACTION & MOVEMENT: Identify any motion, interactions, activities, and how they contribute to the narrative.

ARTISTIC STYLE: Classify the style (realism, digital art, illustration), techniques used, and their interpretative impact.

NARRATIVE ELEMENTS: Describe the story being told, themes, metaphors, and potential viewer interpretations.

SYMBOLIC CONTENT: Note symbolic objects, gestures, arrangements, and their cultural or abstract meanings.

SPATIAL DEPTH: Analyze depth creation through overlapping, scaling, perspective, and dimensional qualities.

FOCAL POINTS: Identify where attention is drawn, how focus is achieved, and clarity of visual hierarchy.

LINE & SHAPE: Describe line types, shapes used, and their role in guiding movement and structure.

TYPOGRAPHY: If text exists, analyze font styles, relationship to visual content, and functional role.

SENSORY ELEMENTS: Note any implied sounds, textures, or sensory cues that enhance immersion.

REQUIREMENTS:
- Generate comma-separated descriptive phrases
- Use only factual, observable details
- Maintain accuracy over assumptions
- Keep descriptions clean and precise
- Focus on visual elements that enhance understanding
- Target 600-800 characters for optimal detail
- Exclude filler words and redundant phrases

Format: Clean comma-separated phrases describing the comprehensive visual analysis.`
